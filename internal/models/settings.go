package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Settings is the single user-preferences document. Stored values are
// deep-merged into DefaultSettings on load, so new fields pick up defaults.
type Settings struct {
	Theme             string               `json:"theme"`
	Notifications     NotificationSettings `json:"notifications"`
	KeyboardShortcuts bool                 `json:"keyboardShortcuts"`
	AutoSave          bool                 `json:"autoSave"`
	DefaultPriority   Priority             `json:"defaultPriority"`
	WorkingHours      WorkingHours         `json:"workingHours"`
	Timezone          string               `json:"timezone"`
	Language          string               `json:"language"`
	DateFormat        string               `json:"dateFormat"`
	TimeFormat        string               `json:"timeFormat"`
	WeekStart         string               `json:"weekStart"`
	Productivity      ProductivitySettings `json:"productivity"`
	AI                AISettings           `json:"ai"`
	Security          SecuritySettings     `json:"security"`
	Collaboration     CollaborationConfig  `json:"collaboration"`
}

type NotificationSettings struct {
	Enabled          bool   `json:"enabled"`
	Email            bool   `json:"email"`
	Push             bool   `json:"push"`
	DueDateReminders bool   `json:"dueDateReminders"`
	DailyDigest      bool   `json:"dailyDigest"`
	WeeklyReport     bool   `json:"weeklyReport"`
	ReminderTime     string `json:"reminderTime"`
	Mentions         bool   `json:"mentions"`
	TaskAssignments  bool   `json:"taskAssignments"`
	DeadlineAlerts   bool   `json:"deadlineAlerts"`
	TeamUpdates      bool   `json:"teamUpdates"`
	AIInsights       bool   `json:"aiInsights"`
	WorkloadWarnings bool   `json:"workloadWarnings"`
}

type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ProductivitySettings struct {
	FocusMode           bool              `json:"focusMode"`
	TimeBlocking        bool              `json:"timeBlocking"`
	DeepWorkSessions    bool              `json:"deepWorkSessions"`
	DistractionBlocking bool              `json:"distractionBlocking"`
	Goals               ProductivityGoals `json:"productivityGoals"`
}

type ProductivityGoals struct {
	DailyTasks      int `json:"dailyTasks"`
	WeeklyHours     int `json:"weeklyHours"`
	MonthlyProjects int `json:"monthlyProjects"`
	FocusHours      int `json:"focusHours"`
	LearningHours   int `json:"learningHours"`
}

type AISettings struct {
	Enabled                   bool `json:"enabled"`
	AutoSuggestions           bool `json:"autoSuggestions"`
	SmartPrioritization       bool `json:"smartPrioritization"`
	TimeEstimation            bool `json:"timeEstimation"`
	WorkloadOptimization      bool `json:"workloadOptimization"`
	BurnoutPrevention         bool `json:"burnoutPrevention"`
	InsightGeneration         bool `json:"insightGeneration"`
	NaturalLanguageProcessing bool `json:"naturalLanguageProcessing"`
	PredictiveAnalytics       bool `json:"predictiveAnalytics"`
}

type SecuritySettings struct {
	TwoFactorAuth    bool           `json:"twoFactorAuth"`
	SessionTimeout   int            `json:"sessionTimeout"` // minutes
	DataEncryption   bool           `json:"dataEncryption"`
	AuditLogging     bool           `json:"auditLogging"`
	IPWhitelist      []string       `json:"ipWhitelist"`
	PasswordPolicy   PasswordPolicy `json:"passwordPolicy"`
	SSOEnabled       bool           `json:"ssoEnabled"`
	BackupEncryption bool           `json:"backupEncryption"`
}

type PasswordPolicy struct {
	MinLength        int  `json:"minLength"`
	RequireUppercase bool `json:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers"`
	RequireSymbols   bool `json:"requireSymbols"`
	ExpirationDays   int  `json:"expirationDays"`
}

type CollaborationConfig struct {
	AllowGuestUsers      bool        `json:"allowGuestUsers"`
	DefaultPermissions   Permissions `json:"defaultPermissions"`
	MentionNotifications bool        `json:"mentionNotifications"`
	RealTimeUpdates      bool        `json:"realTimeUpdates"`
	ConflictResolution   string      `json:"conflictResolution"`
	MaxCollaborators     int         `json:"maxCollaborators"`
}

type Permissions struct {
	CanCreateTasks        bool `json:"canCreateTasks"`
	CanEditTasks          bool `json:"canEditTasks"`
	CanDeleteTasks        bool `json:"canDeleteTasks"`
	CanManageList         bool `json:"canManageList"`
	CanInviteUsers        bool `json:"canInviteUsers"`
	CanViewAnalytics      bool `json:"canViewAnalytics"`
	CanExportData         bool `json:"canExportData"`
	CanManageIntegrations bool `json:"canManageIntegrations"`
}

// DefaultSettings returns the first-run preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme: "light",
		Notifications: NotificationSettings{
			Enabled:          true,
			Push:             true,
			DueDateReminders: true,
			ReminderTime:     "09:00",
			Mentions:         true,
			TaskAssignments:  true,
			DeadlineAlerts:   true,
			TeamUpdates:      true,
			AIInsights:       true,
			WorkloadWarnings: true,
		},
		KeyboardShortcuts: true,
		AutoSave:          true,
		DefaultPriority:   PriorityMedium,
		WorkingHours:      WorkingHours{Start: "09:00", End: "17:00"},
		Timezone:          "UTC",
		Language:          "en",
		DateFormat:        "MM/DD/YYYY",
		TimeFormat:        "12h",
		WeekStart:         "monday",
		Productivity: ProductivitySettings{
			Goals: ProductivityGoals{
				DailyTasks:      5,
				WeeklyHours:     40,
				MonthlyProjects: 3,
				FocusHours:      4,
				LearningHours:   2,
			},
		},
		AI: AISettings{
			Enabled:                   true,
			AutoSuggestions:           true,
			SmartPrioritization:       true,
			TimeEstimation:            true,
			WorkloadOptimization:      true,
			BurnoutPrevention:         true,
			InsightGeneration:         true,
			NaturalLanguageProcessing: true,
			PredictiveAnalytics:       true,
		},
		Security: SecuritySettings{
			SessionTimeout:   480,
			DataEncryption:   true,
			AuditLogging:     true,
			IPWhitelist:      []string{},
			PasswordPolicy:   PasswordPolicy{MinLength: 8, RequireUppercase: true, RequireLowercase: true, RequireNumbers: true, ExpirationDays: 90},
			BackupEncryption: true,
		},
		Collaboration: CollaborationConfig{
			AllowGuestUsers: true,
			DefaultPermissions: Permissions{
				CanCreateTasks:   true,
				CanEditTasks:     true,
				CanViewAnalytics: true,
			},
			MentionNotifications: true,
			RealTimeUpdates:      true,
			ConflictResolution:   "last_write_wins",
			MaxCollaborators:     50,
		},
	}
}

// Validate checks the enumerated settings values.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Theme, validation.In("light", "dark", "auto")),
		validation.Field(&s.DefaultPriority, validation.In(priorities...)),
		validation.Field(&s.TimeFormat, validation.In("12h", "24h")),
		validation.Field(&s.WeekStart, validation.In("sunday", "monday")),
	)
}
