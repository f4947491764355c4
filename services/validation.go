package services

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"avocare/api/client"
	"avocare/models"
)

const (
	MinTitleLength    = 3
	MaxTitleLength    = 120
	MinContentLength  = 10
	MinPasswordLength = 6
)

// Имена полей в ValidationError
const (
	FieldTitle    = "title"
	FieldContent  = "content"
	FieldCategory = "category"
	FieldImages   = "images"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldName     = "name"
	FieldMessage  = "message"
)

// ValidatePostForm проверяет форму поста до отправки
func ValidatePostForm(form *client.PostForm, filter *ProfanityFilter) error {
	if filter == nil {
		filter = DefaultProfanityFilter
	}
	verr := &ValidationError{}

	title := strings.TrimSpace(form.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		verr.Add(FieldTitle, "Title is required")
	case n < MinTitleLength:
		verr.Add(FieldTitle, fmt.Sprintf("Title must be at least %d characters", MinTitleLength))
	case n > MaxTitleLength:
		verr.Add(FieldTitle, fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}
	if words := filter.Find(title); len(words) > 0 {
		verr.Add(FieldTitle, profanityMessage("Title", words))
	}

	content := strings.TrimSpace(form.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		verr.Add(FieldContent, "Content is required")
	case n < MinContentLength:
		verr.Add(FieldContent, fmt.Sprintf("Content must be at least %d characters", MinContentLength))
	}
	if words := filter.Find(content); len(words) > 0 {
		verr.Add(FieldContent, profanityMessage("Content", words))
	}

	if !form.Category.Valid() {
		verr.Add(FieldCategory, "Please select a valid category")
	}

	if n := form.ImageCount(); n > models.MaxPostImages {
		verr.Add(FieldImages, fmt.Sprintf("You can attach at most %d images (got %d)", models.MaxPostImages, n))
	}

	return verr.OrNil()
}

// ValidateComment - комментарий не пустой; нецензурные слова сервер заменяет сам
func ValidateComment(content string) error {
	verr := &ValidationError{}
	if strings.TrimSpace(content) == "" {
		verr.Add(FieldContent, "Comment cannot be empty")
	}
	return verr.OrNil()
}

func ValidateCredentials(email, password string) error {
	verr := &ValidationError{}
	validateEmail(verr, email)
	if password == "" {
		verr.Add(FieldPassword, "Password is required")
	}
	return verr.OrNil()
}

func ValidateRegistration(name, email, password string) error {
	verr := &ValidationError{}
	if strings.TrimSpace(name) == "" {
		verr.Add(FieldName, "Name is required")
	}
	validateEmail(verr, email)
	if utf8.RuneCountInString(password) < MinPasswordLength {
		verr.Add(FieldPassword, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return verr.OrNil()
}

func validateEmail(verr *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		verr.Add(FieldEmail, "Email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		verr.Add(FieldEmail, "Please enter a valid email address")
	}
}

func profanityMessage(field string, words []string) string {
	return fmt.Sprintf("%s contains inappropriate language: %s", field, strings.Join(words, ", "))
}
