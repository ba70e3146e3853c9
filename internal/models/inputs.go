package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// Inputs use pointer fields so one struct serves both create and partial update:
// a nil field was not supplied. An empty string on a nullable column clears it.

type ProjectInput struct {
	Title            *string   `json:"title" validate:"omitempty,max=255"`
	Description      *string   `json:"description" validate:"omitempty,max=10000"`
	TechStack        *[]string `json:"techStack" validate:"omitempty,max=50,dive,max=100"`
	ImageURL         *string   `json:"imageUrl" validate:"omitempty,max=500,imageref"`
	GithubURL        *string   `json:"githubUrl" validate:"omitempty,max=500,url"`
	LiveURL          *string   `json:"liveUrl" validate:"omitempty,max=500,url"`
	Category         *string   `json:"category" validate:"omitempty,max=100"`
	ProblemStatement *string   `json:"problemStatement" validate:"omitempty,max=10000"`
	Motivation       *string   `json:"motivation" validate:"omitempty,max=10000"`
	SystemDesign     *string   `json:"systemDesign" validate:"omitempty,max=10000"`
	Challenges       *string   `json:"challenges" validate:"omitempty,max=10000"`
	Learnings        *string   `json:"learnings" validate:"omitempty,max=10000"`
}

// Validate reports every problem with the input. With partial set, absent
// fields are allowed.
func (in ProjectInput) Validate(partial bool) []FieldError {
	var errs []FieldError
	errs = requireText(errs, partial, "title", in.Title)
	errs = requireText(errs, partial, "description", in.Description)
	errs = requireText(errs, partial, "imageUrl", in.ImageURL)
	errs = requireText(errs, partial, "category", in.Category)
	if in.TechStack != nil {
		for i, item := range *in.TechStack {
			if strings.TrimSpace(item) == "" {
				errs = append(errs, FieldError{Path: fmt.Sprintf("techStack[%d]", i), Message: "Must not be empty"})
			}
		}
	}
	return append(errs, structErrors(in)...)
}

// ToProject builds the row to insert. Call only after Validate(false) passed.
func (in ProjectInput) ToProject() Project {
	p := Project{
		Title:            trimmed(in.Title),
		Description:      trimmed(in.Description),
		TechStack:        datatypes.JSONSlice[string]{},
		ImageURL:         trimmed(in.ImageURL),
		GithubURL:        nullable(in.GithubURL),
		LiveURL:          nullable(in.LiveURL),
		Category:         trimmed(in.Category),
		ProblemStatement: nullable(in.ProblemStatement),
		Motivation:       nullable(in.Motivation),
		SystemDesign:     nullable(in.SystemDesign),
		Challenges:       nullable(in.Challenges),
		Learnings:        nullable(in.Learnings),
	}
	if in.TechStack != nil {
		p.TechStack = techStack(*in.TechStack)
	}
	return p
}

// Changes maps the supplied fields to their columns.
func (in ProjectInput) Changes() map[string]any {
	c := map[string]any{}
	setText(c, "title", in.Title)
	setText(c, "description", in.Description)
	if in.TechStack != nil {
		c["tech_stack"] = techStack(*in.TechStack)
	}
	setText(c, "image_url", in.ImageURL)
	setNullable(c, "github_url", in.GithubURL)
	setNullable(c, "live_url", in.LiveURL)
	setText(c, "category", in.Category)
	setNullable(c, "problem_statement", in.ProblemStatement)
	setNullable(c, "motivation", in.Motivation)
	setNullable(c, "system_design", in.SystemDesign)
	setNullable(c, "challenges", in.Challenges)
	setNullable(c, "learnings", in.Learnings)
	return c
}

type SkillInput struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Icon     *string `json:"icon" validate:"omitempty,max=100"`
}

func (in SkillInput) Validate(partial bool) []FieldError {
	var errs []FieldError
	errs = requireText(errs, partial, "name", in.Name)
	errs = requireText(errs, partial, "category", in.Category)
	return append(errs, structErrors(in)...)
}

func (in SkillInput) ToSkill() Skill {
	s := Skill{
		Name:     trimmed(in.Name),
		Category: trimmed(in.Category),
		Icon:     trimmed(in.Icon),
	}
	if s.Icon == "" {
		s.Icon = DefaultSkillIcon
	}
	return s
}

func (in SkillInput) Changes() map[string]any {
	c := map[string]any{}
	setText(c, "name", in.Name)
	setText(c, "category", in.Category)
	if in.Icon != nil {
		icon := strings.TrimSpace(*in.Icon)
		if icon == "" {
			icon = DefaultSkillIcon
		}
		c["icon"] = icon
	}
	return c
}

type ExperienceInput struct {
	Role         *string `json:"role" validate:"omitempty,max=200"`
	Organization *string `json:"organization" validate:"omitempty,max=200"`
	Period       *string `json:"period" validate:"omitempty,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=10000"`
	Type         *string `json:"type" validate:"omitempty,max=100"`
}

func (in ExperienceInput) Validate(partial bool) []FieldError {
	var errs []FieldError
	errs = requireText(errs, partial, "role", in.Role)
	errs = requireText(errs, partial, "organization", in.Organization)
	errs = requireText(errs, partial, "period", in.Period)
	errs = requireText(errs, partial, "description", in.Description)
	return append(errs, structErrors(in)...)
}

func (in ExperienceInput) ToExperience() Experience {
	e := Experience{
		Role:         trimmed(in.Role),
		Organization: trimmed(in.Organization),
		Period:       trimmed(in.Period),
		Description:  trimmed(in.Description),
		Type:         trimmed(in.Type),
	}
	if e.Type == "" {
		e.Type = DefaultExperienceType
	}
	return e
}

func (in ExperienceInput) Changes() map[string]any {
	c := map[string]any{}
	setText(c, "role", in.Role)
	setText(c, "organization", in.Organization)
	setText(c, "period", in.Period)
	setText(c, "description", in.Description)
	if in.Type != nil {
		typ := strings.TrimSpace(*in.Type)
		if typ == "" {
			typ = DefaultExperienceType
		}
		c["type"] = typ
	}
	return c
}

type MessageInput struct {
	Name    *string `json:"name" validate:"omitempty,max=255"`
	Email   *string `json:"email" validate:"omitempty,max=255,email"`
	Subject *string `json:"subject" validate:"omitempty,max=500"`
	Message *string `json:"message" validate:"omitempty,max=5000"`
}

// Validate always treats the input as a create: messages have no update.
func (in MessageInput) Validate() []FieldError {
	var errs []FieldError
	errs = requireText(errs, false, "name", in.Name)
	errs = requireText(errs, false, "email", in.Email)
	errs = requireText(errs, false, "message", in.Message)
	return append(errs, structErrors(in)...)
}

func (in MessageInput) ToMessage() Message {
	return Message{
		Name:    trimmed(in.Name),
		Email:   trimmed(in.Email),
		Subject: trimmed(in.Subject),
		Message: trimmed(in.Message),
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nullable(s *string) *string {
	v := trimmed(s)
	if v == "" {
		return nil
	}
	return &v
}

func techStack(items []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(item))
	}
	return out
}

func setText(c map[string]any, column string, v *string) {
	if v != nil {
		c[column] = strings.TrimSpace(*v)
	}
}

func setNullable(c map[string]any, column string, v *string) {
	if v == nil {
		return
	}
	if s := strings.TrimSpace(*v); s != "" {
		c[column] = s
	} else {
		c[column] = nil
	}
}
