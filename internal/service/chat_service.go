package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/llm"
	"github.com/spec-kit/grievance-service/internal/observability"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// MsgChatFallback is returned when the model's answer cannot be parsed.
const MsgChatFallback = "I apologize, but I'm having trouble understanding. Could you please rephrase that?"

const chatSystemPrompt = `You are GrieveBuddy, a friendly and helpful government grievance chatbot assistant.
Analyze the user's message and respond naturally while maintaining professionalism.

If the message is:
- A greeting: respond warmly and ask how you can help with their grievance
- A thank you: acknowledge graciously and offer further assistance
- A follow-up question: provide helpful guidance about the grievance process
- A complaint: identify the relevant department and guide them to submit formally
- Casual chat: politely redirect to grievance-related topics

Available departments for complaints:
%s

Keep responses conversational but professional, show empathy for grievances and guide
users toward formal complaint submission.

Respond in this exact JSON format (no additional text):
{"type": "greeting|thanks|followup|complaint|casual", "reply": "your response here", "department": "department_name"}`

// ChatInput is a single citizen chat message.
type ChatInput struct {
	Message    string
	IsFollowUp bool
}

// ChatService wraps the generative model as the GrieveBuddy assistant.
type ChatService struct {
	gen         llm.Generator
	departments []string
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewChatService constructs the service.
func NewChatService(gen llm.Generator, departments []string, logger *zap.Logger, metrics *observability.Metrics) *ChatService {
	if len(departments) == 0 {
		departments = domain.ClassifierDepartments
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{gen: gen, departments: departments, logger: logger, metrics: metrics}
}

// Reply asks the model for a typed answer. A model failure is an error; an answer that
// is not the expected JSON degrades to a casual apology.
func (s *ChatService) Reply(ctx context.Context, in ChatInput) (*domain.ChatReply, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("Message is required", map[string]any{"field": "message"})
	}

	ctx, span := observability.StartSpan(ctx, "chat.Reply")
	defer span.End()

	user := "User message: " + message
	if in.IsFollowUp {
		user += "\n(This message continues an earlier conversation; keep context in your reply.)"
	}

	start := time.Now()
	answer, err := s.gen.Generate(ctx, fmt.Sprintf(chatSystemPrompt, strings.Join(s.departments, ", ")), user)
	s.metrics.ObserveModelCall("chat", err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		s.logger.Error("chat model call failed", zap.Error(err))
		return nil, apperrors.NewInternalError(fmt.Errorf("chat: %w", err))
	}
	return ParseChatReply(answer, s.logger), nil
}

type chatAnswer struct {
	Type       string `json:"type"`
	Reply      string `json:"reply"`
	Department string `json:"department"`
}

// ParseChatReply decodes the model's JSON answer after removing code fences.
func ParseChatReply(answer string, logger *zap.Logger) *domain.ChatReply {
	clean := strings.ReplaceAll(llm.StripCodeFence(answer), "\n", " ")

	var parsed chatAnswer
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil || strings.TrimSpace(parsed.Reply) == "" {
		if logger != nil {
			logger.Warn("unparseable chat answer", zap.String("answer", answer), zap.Error(err))
		}
		return &domain.ChatReply{Type: domain.ChatReplyCasual, Reply: MsgChatFallback}
	}

	reply := &domain.ChatReply{
		Type:  domain.ChatReplyType(strings.ToLower(strings.TrimSpace(parsed.Type))),
		Reply: strings.TrimSpace(parsed.Reply),
	}
	switch reply.Type {
	case domain.ChatReplyComplaint:
		reply.Department = strings.TrimSpace(parsed.Department)
		if reply.Department == "" {
			reply.Department = domain.DefaultDepartmentName
		}
	case domain.ChatReplyGreeting, domain.ChatReplyThanks, domain.ChatReplyFollowUp, domain.ChatReplyCasual:
	default:
		reply.Type = domain.ChatReplyCasual
	}
	return reply
}
