// Package types holds the shared data structures used across the
// application. Handlers, storage and utils all import types without
// depending on each other.
package types

// Student is a persisted student record.
//
// Struct tags:
//
//  1. db:"..."   — column name used by sqlx when scanning a row.
//  2. json:"..." — key name in API responses.
//
// Phone and Course are nullable in the store; nil means NULL.
type Student struct {
	ID     int64   `db:"id"     json:"id"`
	Name   string  `db:"name"   json:"name"`
	Email  string  `db:"email"  json:"email"`
	Phone  *string `db:"phone"  json:"phone,omitempty"`
	Course *string `db:"course" json:"course,omitempty"`
}

// StudentInput is the payload for creating or updating a student.
// The id is never part of the input; it is assigned by the store.
//
// validate:"required" rules are checked by go-playground/validator before
// any statement is sent to the store.
type StudentInput struct {
	Name   string `json:"name"   validate:"required"`
	Email  string `json:"email"  validate:"required"`
	Phone  string `json:"phone"`
	Course string `json:"course"`
}

// Student returns the record that results from persisting in under id.
// Empty optional fields become nil.
func (in StudentInput) Student(id int64) Student {
	return Student{
		ID:     id,
		Name:   in.Name,
		Email:  in.Email,
		Phone:  Nullable(in.Phone),
		Course: Nullable(in.Course),
	}
}

// Nullable maps "" to nil and any other value to a pointer to it.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
