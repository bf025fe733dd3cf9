// Package canvas provides a read-mostly client for the Canvas LMS REST API.
//
// The client covers the course, assignment, profile, and account endpoints the
// CLI needs, retries transient failures with capped exponential backoff, and
// classifies errors so callers can map them onto the CLI error taxonomy.
// Submission remains a local stub; the real Canvas flow needs a file upload
// plus a submission POST and is deferred.
package canvas

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// maxAttempts is the total number of tries for a retryable request.
	maxAttempts = 3

	// initialRetryDelay and retryMultiplier produce delays of 400ms then 1s
	// between the three attempts.
	initialRetryDelay = 400 * time.Millisecond
	retryMultiplier   = 2.5

	// maxResponseSize caps response bodies read into memory.
	maxResponseSize = 10 * 1024 * 1024

	// dueFanOutLimit bounds concurrent per-course assignment fetches.
	dueFanOutLimit = 4
)

// Client provides methods to interact with the Canvas REST API.
type Client struct {
	Token      string       // Canvas API token
	BaseURL    string       // Instance base URL, e.g. https://school.instructure.com
	HTTPClient *http.Client // Optional custom HTTP client
}

// Course is a Canvas course as returned by GET /api/v1/courses.
type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CourseCode    string `json:"course_code,omitempty"`
	WorkflowState string `json:"workflow_state,omitempty"`
}

// Assignment is a Canvas assignment. Rubric is present only when the
// assignment has one attached.
type Assignment struct {
	ID              int64             `json:"id"`
	CourseID        int64             `json:"course_id,omitempty"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	DueAt           *time.Time        `json:"due_at,omitempty"`
	PointsPossible  float64           `json:"points_possible,omitempty"`
	SubmissionTypes []string          `json:"submission_types,omitempty"`
	HTMLURL         string            `json:"html_url,omitempty"`
	Rubric          []RubricCriterion `json:"rubric,omitempty"`
}

// RubricCriterion is one row of an assignment rubric. Instances differ in
// which of the name keys they populate.
type RubricCriterion struct {
	ID              string  `json:"id,omitempty"`
	Description     string  `json:"description"`
	Criterion       string  `json:"criterion,omitempty"`
	LongDescription string  `json:"long_description,omitempty"`
	Points          float64 `json:"points,omitempty"`
}

// Name returns the first populated name field for the criterion.
func (c RubricCriterion) Name() string {
	switch {
	case c.Description != "":
		return c.Description
	case c.Criterion != "":
		return c.Criterion
	default:
		return c.LongDescription
	}
}

// Profile is the authenticated user's profile from GET /api/v1/users/self/profile.
type Profile struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PrimaryEmail string `json:"primary_email,omitempty"`
	LoginID      string `json:"login_id,omitempty"`
}

// Account is a Canvas account visible to the user.
type Account struct {
	ID          int64  `json:"id"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// SchoolName returns the best human name for the account.
func (a Account) SchoolName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.DisplayName
}

// BrandTheme is the account branding payload. Canvas instances differ in
// which logo key they populate.
type BrandTheme struct {
	Logo      string `json:"logo,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
	BrandLogo string `json:"brand_logo,omitempty"`
}

// LogoValue returns the first populated logo field.
func (t BrandTheme) LogoValue() string {
	switch {
	case t.Logo != "":
		return t.Logo
	case t.LogoURL != "":
		return t.LogoURL
	default:
		return t.BrandLogo
	}
}

// SubmissionStub is the placeholder result of the submission flow.
type SubmissionStub struct {
	Status       string `json:"status"`
	AssignmentID int64  `json:"assignment_id"`
	File         string `json:"file"`
	Message      string `json:"message"`
}
