// Package models declares the GORM entities of the audit manager. Column
// names and table names match the migration log in pkg/migrations; the
// models never drive schema creation.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// User owns projects and audits. Account management lives outside this
// service; the table is read for ownership checks and diagnostics.
type User struct {
	ID        uint                        `gorm:"primaryKey;column:id" json:"id"`
	Email     string                      `gorm:"column:email;not null" json:"email"`
	FirstName *string                     `gorm:"column:first_name" json:"firstName,omitempty"`
	LastName  *string                     `gorm:"column:last_name" json:"lastName,omitempty"`
	Roles     datatypes.JSONSlice[string] `gorm:"column:roles;not null" json:"roles"`
	CreatedAt time.Time                   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	Projects  []Project                   `gorm:"foreignKey:UserID" json:"projects,omitempty"`
}

// TableName returns the GORM table name.
func (User) TableName() string { return "user" }

// Project is a web site under audit.
type Project struct {
	ID          uint          `gorm:"primaryKey;column:id" json:"id"`
	UserID      uint          `gorm:"column:user_id;not null" json:"userId"`
	Name        string        `gorm:"column:name;not null" json:"name"`
	Client      *string       `gorm:"column:client" json:"client,omitempty"`
	Description *string       `gorm:"column:description" json:"description,omitempty"`
	URL         *string       `gorm:"column:url" json:"url,omitempty"`
	Color       *string       `gorm:"column:color" json:"color,omitempty"`
	Status      ProjectStatus `gorm:"column:status;not null" json:"status"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	User        *User         `gorm:"foreignKey:UserID" json:"-"`
	Campaigns   []Campaign    `gorm:"foreignKey:ProjectID" json:"campaigns,omitempty"`
}

// TableName returns the GORM table name.
func (Project) TableName() string { return "project" }

// Campaign is a bounded audit effort over a sample of pages of a project.
type Campaign struct {
	ID                uint           `gorm:"primaryKey;column:id" json:"id"`
	ProjectID         uint           `gorm:"column:project_id;not null" json:"projectId"`
	Name              string         `gorm:"column:name;not null" json:"name"`
	Description       *string        `gorm:"column:description" json:"description,omitempty"`
	StartDate         *time.Time     `gorm:"column:start_date;type:date" json:"startDate,omitempty"`
	EndDate           *time.Time     `gorm:"column:end_date;type:date" json:"endDate,omitempty"`
	Status            CampaignStatus `gorm:"column:status;not null" json:"status"`
	SampleType        SampleType     `gorm:"column:sample_type;not null" json:"sampleType"`
	TotalPages        int            `gorm:"column:total_pages;not null" json:"totalPages"`
	AvgConformityRate *float64       `gorm:"column:avg_conformity_rate" json:"avgConformityRate,omitempty"`
	TotalIssues       int            `gorm:"column:total_issues;not null" json:"totalIssues"`
	CriticalCount     int            `gorm:"column:critical_count;not null" json:"criticalCount"`
	MajorCount        int            `gorm:"column:major_count;not null" json:"majorCount"`
	MinorCount        int            `gorm:"column:minor_count;not null" json:"minorCount"`
	ReportPDFPath     *string        `gorm:"column:report_pdf_path" json:"reportPdfPath,omitempty"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	Project           *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Audits            []Audit        `gorm:"foreignKey:CampaignID" json:"audits,omitempty"`
	ActionPlans       []ActionPlan   `gorm:"foreignKey:CampaignID" json:"actionPlans,omitempty"`
}

// TableName returns the GORM table name.
func (Campaign) TableName() string { return "audit_campaign" }

// Audit is the result of auditing one page.
type Audit struct {
	ID                uint          `gorm:"primaryKey;column:id" json:"id"`
	UserID            uint          `gorm:"column:user_id;not null" json:"userId"`
	CampaignID        *uint         `gorm:"column:campaign_id" json:"campaignId,omitempty"`
	URL               string        `gorm:"column:url;not null" json:"url"`
	Status            AuditStatus   `gorm:"column:status;not null" json:"status"`
	Scope             AuditScope    `gorm:"column:audit_scope;not null" json:"scope"`
	PageType          *string       `gorm:"column:page_type" json:"pageType,omitempty"`
	PageTitle         *string       `gorm:"column:page_title" json:"pageTitle,omitempty"`
	ConformityRate    *float64      `gorm:"column:conformity_rate" json:"conformityRate,omitempty"`
	TotalIssues       int           `gorm:"column:total_issues;not null" json:"totalIssues"`
	CriticalCount     int           `gorm:"column:critical_count;not null" json:"criticalCount"`
	MajorCount        int           `gorm:"column:major_count;not null" json:"majorCount"`
	MinorCount        int           `gorm:"column:minor_count;not null" json:"minorCount"`
	Summary           *string       `gorm:"column:summary" json:"summary,omitempty"`
	ScreenshotPath    *string       `gorm:"column:screenshot_path" json:"screenshotPath,omitempty"`
	NotTestedCriteria CriteriaRefs  `gorm:"column:not_tested_criteria" json:"notTestedCriteria,omitempty"`
	CreatedAt         time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	ManualChecks      []ManualCheck `gorm:"foreignKey:AuditID" json:"manualChecks,omitempty"`
}

// TableName returns the GORM table name.
func (Audit) TableName() string { return "audit" }

// ManualCheck is an auditor's verdict on one RGAA criterion of an audit.
type ManualCheck struct {
	ID             uint        `gorm:"primaryKey;column:id" json:"id"`
	AuditID        uint        `gorm:"column:audit_id;not null" json:"auditId"`
	CriteriaNumber string      `gorm:"column:criteria_number;not null" json:"criteriaNumber"`
	Status         CheckStatus `gorm:"column:status;not null" json:"status"`
	Notes          *string     `gorm:"column:notes" json:"notes,omitempty"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (ManualCheck) TableName() string { return "manual_check" }

// VisualErrorCriteria maps a visual error type reported by page analysis to
// the WCAG and RGAA criteria it violates.
type VisualErrorCriteria struct {
	ID             uint      `gorm:"primaryKey;column:id" json:"id"`
	ErrorType      string    `gorm:"column:error_type;not null" json:"errorType"`
	WCAGCriteria   CommaList `gorm:"column:wcag_criteria;not null" json:"wcagCriteria"`
	RGAACriteria   CommaList `gorm:"column:rgaa_criteria;not null" json:"rgaaCriteria"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	DetectionCount int       `gorm:"column:detection_count;not null" json:"detectionCount"`
	AutoLearned    bool      `gorm:"column:auto_learned;not null" json:"autoLearned"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (VisualErrorCriteria) TableName() string { return "visual_error_criteria" }

// ActionPlan is a pluriannual remediation plan (PPA) derived from a campaign.
type ActionPlan struct {
	ID                    uint                  `gorm:"primaryKey;column:id" json:"id"`
	CampaignID            uint                  `gorm:"column:campaign_id;not null" json:"campaignId"`
	Name                  string                `gorm:"column:name;not null" json:"name"`
	Description           *string               `gorm:"column:description" json:"description,omitempty"`
	StartDate             datatypes.Date        `gorm:"column:start_date;not null" json:"startDate"`
	EndDate               datatypes.Date        `gorm:"column:end_date;not null" json:"endDate"`
	DurationYears         int                   `gorm:"column:duration_years;not null" json:"durationYears"`
	CurrentConformityRate *float64              `gorm:"column:current_conformity_rate" json:"currentConformityRate,omitempty"`
	TargetConformityRate  *float64              `gorm:"column:target_conformity_rate" json:"targetConformityRate,omitempty"`
	TotalIssues           int                   `gorm:"column:total_issues;not null" json:"totalIssues"`
	CriticalIssues        int                   `gorm:"column:critical_issues;not null" json:"criticalIssues"`
	QuickWinsCount        int                   `gorm:"column:quick_wins_count;not null" json:"quickWinsCount"`
	Status                PlanStatus            `gorm:"column:status;not null" json:"status"`
	StrategicOrientations StrategicOrientations `gorm:"column:strategic_orientations" json:"strategicOrientations,omitempty"`
	ProgressAxes          ProgressAxes          `gorm:"column:progress_axes" json:"progressAxes,omitempty"`
	AnnualObjectives      AnnualObjectives      `gorm:"column:annual_objectives" json:"annualObjectives,omitempty"`
	Resources             Resources             `gorm:"column:resources" json:"resources,omitempty"`
	Indicators            Indicators            `gorm:"column:indicators" json:"indicators,omitempty"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	Campaign              *Campaign             `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	AnnualPlans           []AnnualActionPlan    `gorm:"foreignKey:PluriAnnualPlanID" json:"annualPlans,omitempty"`
	// Items attached directly to the plan, before annual plans existed.
	Items []ActionPlanItem `gorm:"foreignKey:ActionPlanID" json:"items,omitempty"`
}

// TableName returns the GORM table name.
func (ActionPlan) TableName() string { return "action_plan" }

// AnnualActionPlan is one year's operational slice of an ActionPlan.
type AnnualActionPlan struct {
	ID                uint             `gorm:"primaryKey;column:id" json:"id"`
	PluriAnnualPlanID uint             `gorm:"column:pluri_annual_plan_id;not null" json:"actionPlanId"`
	Year              int              `gorm:"column:year;not null" json:"year"`
	Title             string           `gorm:"column:title;not null" json:"title"`
	Description       *string          `gorm:"column:description" json:"description,omitempty"`
	Objectives        TextList         `gorm:"column:objectives" json:"objectives,omitempty"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
	Items             []ActionPlanItem `gorm:"foreignKey:AnnualPlanID" json:"items,omitempty"`
}

// TableName returns the GORM table name.
func (AnnualActionPlan) TableName() string { return "annual_action_plan" }

// ActionPlanItem is a concrete remediation task. It belongs either to an
// annual plan or, for rows predating annual plans, directly to a
// pluriannual plan; see Parent.
type ActionPlanItem struct {
	ID                 uint          `gorm:"primaryKey;column:id" json:"id"`
	ActionPlanID       *uint         `gorm:"column:action_plan_id" json:"-"`
	AnnualPlanID       *uint         `gorm:"column:annual_plan_id" json:"-"`
	Title              string        `gorm:"column:title;not null" json:"title"`
	Description        *string       `gorm:"column:description" json:"description,omitempty"`
	Category           ItemCategory  `gorm:"column:category;not null" json:"category"`
	Severity           Severity      `gorm:"column:severity;not null" json:"severity"`
	Priority           Priority      `gorm:"column:priority;not null" json:"priority"`
	Year               int           `gorm:"column:year;not null" json:"year"`
	Quarter            *int          `gorm:"column:quarter" json:"quarter,omitempty"`
	QuickWin           bool          `gorm:"column:quick_win;not null" json:"quickWin"`
	EstimatedEffort    *int          `gorm:"column:estimated_effort" json:"estimatedEffort,omitempty"`
	ImpactScore        *int          `gorm:"column:impact_score" json:"impactScore,omitempty"`
	AffectedPages      AffectedPages `gorm:"column:affected_pages" json:"affectedPages,omitempty"`
	RGAACriteria       CriteriaRefs  `gorm:"column:rgaa_criteria" json:"rgaaCriteria,omitempty"`
	TechnicalDetails   *string       `gorm:"column:technical_details" json:"technicalDetails,omitempty"`
	AcceptanceCriteria *string       `gorm:"column:acceptance_criteria" json:"acceptanceCriteria,omitempty"`
	Status             ItemStatus    `gorm:"column:status;not null" json:"status"`
	DisplayOrder       int           `gorm:"column:display_order;not null" json:"displayOrder"`
	CreatedAt          time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (ActionPlanItem) TableName() string { return "action_plan_item" }
