package domain

// ChatReplyType classifies an assistant reply.
type ChatReplyType string

const (
	ChatReplyGreeting  ChatReplyType = "greeting"
	ChatReplyThanks    ChatReplyType = "thanks"
	ChatReplyFollowUp  ChatReplyType = "followup"
	ChatReplyComplaint ChatReplyType = "complaint"
	ChatReplyCasual    ChatReplyType = "casual"
)

// ChatReply is the assistant's answer to a citizen message.
type ChatReply struct {
	Type       ChatReplyType
	Reply      string
	Department string
}
