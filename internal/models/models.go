// Package models holds the database models and the request inputs that build them.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Defaults applied when the client leaves the field out.
const (
	DefaultSkillIcon      = "Code"
	DefaultExperienceType = "Experience"
)

type Project struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	Title            string                      `gorm:"size:255;not null" json:"title"`
	Description      string                      `gorm:"type:text;not null" json:"description"`
	TechStack        datatypes.JSONSlice[string] `gorm:"not null" json:"techStack"`
	ImageURL         string                      `gorm:"size:500;not null" json:"imageUrl"`
	GithubURL        *string                     `gorm:"size:500" json:"githubUrl"`
	LiveURL          *string                     `gorm:"size:500" json:"liveUrl"`
	Category         string                      `gorm:"size:100;not null" json:"category"`
	ProblemStatement *string                     `gorm:"type:text" json:"problemStatement"`
	Motivation       *string                     `gorm:"type:text" json:"motivation"`
	SystemDesign     *string                     `gorm:"type:text" json:"systemDesign"`
	Challenges       *string                     `gorm:"type:text" json:"challenges"`
	Learnings        *string                     `gorm:"type:text" json:"learnings"`
}

type Skill struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Category string `gorm:"size:100;not null" json:"category"`
	Icon     string `gorm:"size:100;not null;default:Code" json:"icon"`
}

type Experience struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Role         string `gorm:"size:200;not null" json:"role"`
	Organization string `gorm:"size:200;not null" json:"organization"`
	Period       string `gorm:"size:100;not null" json:"period"`
	Description  string `gorm:"type:text;not null" json:"description"`
	Type         string `gorm:"size:100;not null;default:Experience" json:"type"`
}

// Message is an inbound contact form submission. It is never updated.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Subject   string    `gorm:"size:500;not null;default:''" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// All lists every model for migrations.
func All() []any {
	return []any{&Project{}, &Skill{}, &Experience{}, &Message{}}
}
