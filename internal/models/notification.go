package models

import "time"

type ExpertSignup struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Expertise string `json:"expertise"`
}

type ExpertVerification struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SupportTicket struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
