package domain

// DefaultDepartmentName receives complaints whose classified department is unknown.
const DefaultDepartmentName = "Administration"

// Department is an administrative routing category.
type Department struct {
	ID   int64
	Name string
}

// ClassifierDepartments is the closed list offered to the classification model.
var ClassifierDepartments = []string{
	"Administration",
	"Civil",
	"Education",
	"Electrical",
	"Finance",
	"Health & Sanitation",
	"HR",
	"IT",
	"Maintenance",
	"Public Safety",
	"Road & Transport",
	"Security",
	"Waste Management",
	"Water",
}
