package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Role is the closed set of user roles. Every decision keyed on a role must
// handle all four values explicitly.
type Role string

const (
	RolePM         Role = "PM"
	RoleTL         Role = "TL"
	RoleExecutive  Role = "EXECUTIVE"
	RoleProduction Role = "PRODUCTION"
)

// Roles lists every valid role.
var Roles = []Role{RolePM, RoleTL, RoleExecutive, RoleProduction}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	for _, r := range Roles {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// User is an account able to sign in to the board.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeUsername strips every whitespace rune and lower-cases the rest.
func NormalizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Workspace identifies which of the four project stores a project lives in.
type Workspace string

const (
	WorkspaceLogo           Workspace = "LOGO"
	WorkspaceWebDesign      Workspace = "WEB_DESIGN"
	WorkspaceWebDevelopment Workspace = "WEB_DEVELOPMENT"
	WorkspaceContent        Workspace = "CONTENT"
)

// Workspaces is also the probe order used when locating a project by id.
var Workspaces = []Workspace{WorkspaceLogo, WorkspaceWebDesign, WorkspaceWebDevelopment, WorkspaceContent}

// ParseWorkspace validates a raw workspace value.
func ParseWorkspace(raw string) (Workspace, error) {
	for _, w := range Workspaces {
		if string(w) == raw {
			return w, nil
		}
	}
	return "", fmt.Errorf("invalid workspace type %q, must be one of: LOGO, WEB_DESIGN, WEB_DEVELOPMENT, CONTENT", raw)
}

// Slug is the URL segment used by the per-workspace list routes.
func (w Workspace) Slug() string {
	switch w {
	case WorkspaceLogo:
		return "logo-design"
	case WorkspaceWebDesign:
		return "web-design"
	case WorkspaceWebDevelopment:
		return "web-development"
	case WorkspaceContent:
		return "content-writer"
	}
	return ""
}

// StatKey is the key used for the workspace in dashboard payloads.
func (w Workspace) StatKey() string {
	switch w {
	case WorkspaceLogo:
		return "logoDesign"
	case WorkspaceWebDesign:
		return "webDesign"
	case WorkspaceWebDevelopment:
		return "webDevelopment"
	case WorkspaceContent:
		return "contentWriter"
	}
	return ""
}

// Status is the Kanban column of a project.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusRevisions  Status = "REVISIONS"
)

// Statuses enumerates the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted, StatusRevisions}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status %q, must be one of: TODO, IN_PROGRESS, COMPLETED, REVISIONS", raw)
}

// Priority ranks project urgency.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == raw {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q, must be one of: LOW, MEDIUM, HIGH, CRITICAL", raw)
}

// Project is a single card on the board. Workspace is not a stored column of
// the project itself; it is filled in from the store the record came from.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Image       *string    `json:"image"`
	PMID        string     `json:"pmId"`
	DeveloperID *string    `json:"developerId"`
	Workspace   Workspace  `json:"workspace"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProjectFilter narrows a project search. Empty fields match everything.
type ProjectFilter struct {
	Query    string
	Status   Status
	Priority Priority
}

// Comment is a note left on a project; Mentions holds resolved user ids.
type Comment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Mentions  []string  `json:"mentions"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Activity is one entry of a project's history.
type Activity struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationType string

const (
	NotificationAssigned  NotificationType = "assigned"
	NotificationComment   NotificationType = "comment"
	NotificationStatus    NotificationType = "status"
	NotificationDeveloper NotificationType = "developer"
)

// Notification is addressed to a single user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	ProjectID string           `json:"projectId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentPDF   AttachmentType = "pdf"
)

// ParseAttachmentType validates a raw attachment type.
func ParseAttachmentType(raw string) (AttachmentType, error) {
	switch AttachmentType(raw) {
	case AttachmentImage, AttachmentPDF:
		return AttachmentType(raw), nil
	}
	return "", fmt.Errorf("invalid attachment type %q, must be one of: image, pdf", raw)
}

// Attachment is a file stored in object storage and linked to a project.
type Attachment struct {
	ID         string         `json:"id"`
	ProjectID  string         `json:"projectId"`
	UserID     string         `json:"userId"`
	Filename   string         `json:"filename"`
	Type       AttachmentType `json:"type"`
	StorageKey string         `json:"-"`
	URL        string         `json:"url,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
