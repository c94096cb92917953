package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidEnum is returned when a stored or submitted value is not one of
// the variants of a closed enumeration.
var ErrInvalidEnum = errors.New("invalid enumeration value")

// Enumerated columns are plain VARCHAR in the database. The types below close
// the set at the application boundary: decoding and encoding both fail on
// unknown values.

func parseEnum[T ~string](kind string, allowed []T, s string) (T, error) {
	v := T(s)
	if !slices.Contains(allowed, v) {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidEnum, kind, s)
	}
	return v, nil
}

func scanEnum[T ~string](kind string, allowed []T, dst *T, src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("%w: unsupported type for %s: %T", ErrInvalidEnum, kind, src)
	}
	v, err := parseEnum(kind, allowed, s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func enumValue[T ~string](kind string, allowed []T, v T) (driver.Value, error) {
	if !slices.Contains(allowed, v) {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidEnum, kind, string(v))
	}
	return string(v), nil
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

var projectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectArchived}

// ProjectStatuses returns every project status value.
func ProjectStatuses() []ProjectStatus { return slices.Clone(projectStatuses) }

// ParseProjectStatus validates s as a project status.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum("project status", projectStatuses, s)
}

// Scan implements the sql.Scanner interface for ProjectStatus.
func (s *ProjectStatus) Scan(src any) error {
	return scanEnum("project status", projectStatuses, s, src)
}

// Value implements the driver.Valuer interface for ProjectStatus.
func (s ProjectStatus) Value() (driver.Value, error) {
	return enumValue("project status", projectStatuses, s)
}

// UnmarshalText rejects unknown project status values.
func (s *ProjectStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseProjectStatus(string(b))
	return err
}

// CampaignStatus is the lifecycle state of an audit campaign.
type CampaignStatus string

const (
	CampaignDraft      CampaignStatus = "draft"
	CampaignInProgress CampaignStatus = "in_progress"
	CampaignCompleted  CampaignStatus = "completed"
	CampaignArchived   CampaignStatus = "archived"
)

var campaignStatuses = []CampaignStatus{CampaignDraft, CampaignInProgress, CampaignCompleted, CampaignArchived}

// CampaignStatuses returns every campaign status value.
func CampaignStatuses() []CampaignStatus { return slices.Clone(campaignStatuses) }

// ParseCampaignStatus validates s as a campaign status.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	return parseEnum("campaign status", campaignStatuses, s)
}

// Scan implements the sql.Scanner interface for CampaignStatus.
func (s *CampaignStatus) Scan(src any) error {
	return scanEnum("campaign status", campaignStatuses, s, src)
}

// Value implements the driver.Valuer interface for CampaignStatus.
func (s CampaignStatus) Value() (driver.Value, error) {
	return enumValue("campaign status", campaignStatuses, s)
}

// UnmarshalText rejects unknown campaign status values.
func (s *CampaignStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseCampaignStatus(string(b))
	return err
}

// SampleType describes how the pages of a campaign were selected.
type SampleType string

const (
	SampleCustom         SampleType = "custom"
	SampleRepresentative SampleType = "representative"
	SampleExhaustive     SampleType = "exhaustive"
)

var sampleTypes = []SampleType{SampleCustom, SampleRepresentative, SampleExhaustive}

// SampleTypes returns every sample type value.
func SampleTypes() []SampleType { return slices.Clone(sampleTypes) }

// ParseSampleType validates s as a sample type.
func ParseSampleType(s string) (SampleType, error) {
	return parseEnum("sample type", sampleTypes, s)
}

// Scan implements the sql.Scanner interface for SampleType.
func (t *SampleType) Scan(src any) error {
	return scanEnum("sample type", sampleTypes, t, src)
}

// Value implements the driver.Valuer interface for SampleType.
func (t SampleType) Value() (driver.Value, error) {
	return enumValue("sample type", sampleTypes, t)
}

// UnmarshalText rejects unknown sample type values.
func (t *SampleType) UnmarshalText(b []byte) (err error) {
	*t, err = ParseSampleType(string(b))
	return err
}

// AuditStatus is the processing state of a page audit.
type AuditStatus string

const (
	AuditPending   AuditStatus = "pending"
	AuditRunning   AuditStatus = "running"
	AuditCompleted AuditStatus = "completed"
	AuditFailed    AuditStatus = "failed"
)

var auditStatuses = []AuditStatus{AuditPending, AuditRunning, AuditCompleted, AuditFailed}

// ParseAuditStatus validates s as a audit status.
func ParseAuditStatus(s string) (AuditStatus, error) {
	return parseEnum("audit status", auditStatuses, s)
}

// Scan implements the sql.Scanner interface for AuditStatus.
func (s *AuditStatus) Scan(src any) error {
	return scanEnum("audit status", auditStatuses, s, src)
}

// Value implements the driver.Valuer interface for AuditStatus.
func (s AuditStatus) Value() (driver.Value, error) {
	return enumValue("audit status", auditStatuses, s)
}

// UnmarshalText rejects unknown audit status values.
func (s *AuditStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseAuditStatus(string(b))
	return err
}

// AuditScope is the part of a page an audit covers.
type AuditScope string

const (
	ScopeFull        AuditScope = "full"
	ScopeTransverse  AuditScope = "transverse"
	ScopeMainContent AuditScope = "main_content"
)

var auditScopes = []AuditScope{ScopeFull, ScopeTransverse, ScopeMainContent}

// AuditScopes returns every audit scope value.
func AuditScopes() []AuditScope { return slices.Clone(auditScopes) }

// ParseAuditScope validates s as a audit scope.
func ParseAuditScope(s string) (AuditScope, error) {
	return parseEnum("audit scope", auditScopes, s)
}

// Scan implements the sql.Scanner interface for AuditScope.
func (s *AuditScope) Scan(src any) error {
	return scanEnum("audit scope", auditScopes, s, src)
}

// Value implements the driver.Valuer interface for AuditScope.
func (s AuditScope) Value() (driver.Value, error) {
	return enumValue("audit scope", auditScopes, s)
}

// UnmarshalText rejects unknown audit scope values.
func (s *AuditScope) UnmarshalText(b []byte) (err error) {
	*s, err = ParseAuditScope(string(b))
	return err
}

// CheckStatus is the verdict of a manual check on one criterion.
type CheckStatus string

const (
	CheckConform       CheckStatus = "conform"
	CheckNonConform    CheckStatus = "non_conform"
	CheckNotApplicable CheckStatus = "not_applicable"
	CheckNotTested     CheckStatus = "not_tested"
)

var checkStatuses = []CheckStatus{CheckConform, CheckNonConform, CheckNotApplicable, CheckNotTested}

// ParseCheckStatus validates s as a check status.
func ParseCheckStatus(s string) (CheckStatus, error) {
	return parseEnum("check status", checkStatuses, s)
}

// Scan implements the sql.Scanner interface for CheckStatus.
func (s *CheckStatus) Scan(src any) error {
	return scanEnum("check status", checkStatuses, s, src)
}

// Value implements the driver.Valuer interface for CheckStatus.
func (s CheckStatus) Value() (driver.Value, error) {
	return enumValue("check status", checkStatuses, s)
}

// UnmarshalText rejects unknown check status values.
func (s *CheckStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseCheckStatus(string(b))
	return err
}

// PlanStatus is the lifecycle state of a pluriannual action plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
)

var planStatuses = []PlanStatus{PlanDraft, PlanActive, PlanCompleted, PlanArchived}

// ParsePlanStatus validates s as a plan status.
func ParsePlanStatus(s string) (PlanStatus, error) {
	return parseEnum("plan status", planStatuses, s)
}

// Scan implements the sql.Scanner interface for PlanStatus.
func (s *PlanStatus) Scan(src any) error {
	return scanEnum("plan status", planStatuses, s, src)
}

// Value implements the driver.Valuer interface for PlanStatus.
func (s PlanStatus) Value() (driver.Value, error) {
	return enumValue("plan status", planStatuses, s)
}

// UnmarshalText rejects unknown plan status values.
func (s *PlanStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParsePlanStatus(string(b))
	return err
}

// ItemStatus is the progress of a remediation item.
type ItemStatus string

const (
	ItemPlanned    ItemStatus = "planned"
	ItemInProgress ItemStatus = "in_progress"
	ItemDone       ItemStatus = "done"
	ItemCancelled  ItemStatus = "cancelled"
)

var itemStatuses = []ItemStatus{ItemPlanned, ItemInProgress, ItemDone, ItemCancelled}

// ParseItemStatus validates s as a item status.
func ParseItemStatus(s string) (ItemStatus, error) {
	return parseEnum("item status", itemStatuses, s)
}

// Scan implements the sql.Scanner interface for ItemStatus.
func (s *ItemStatus) Scan(src any) error {
	return scanEnum("item status", itemStatuses, s, src)
}

// Value implements the driver.Valuer interface for ItemStatus.
func (s ItemStatus) Value() (driver.Value, error) {
	return enumValue("item status", itemStatuses, s)
}

// UnmarshalText rejects unknown item status values.
func (s *ItemStatus) UnmarshalText(b []byte) (err error) {
	*s, err = ParseItemStatus(string(b))
	return err
}

// Severity ranks the impact of an accessibility issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

var severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor}

// ParseSeverity validates s as a severity.
func ParseSeverity(s string) (Severity, error) {
	return parseEnum("severity", severities, s)
}

// Scan implements the sql.Scanner interface for Severity.
func (s *Severity) Scan(src any) error {
	return scanEnum("severity", severities, s, src)
}

// Value implements the driver.Valuer interface for Severity.
func (s Severity) Value() (driver.Value, error) {
	return enumValue("severity", severities, s)
}

// UnmarshalText rejects unknown severity values.
func (s *Severity) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSeverity(string(b))
	return err
}

// Priority orders remediation work.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority validates s as a priority.
func ParsePriority(s string) (Priority, error) {
	return parseEnum("priority", priorities, s)
}

// Scan implements the sql.Scanner interface for Priority.
func (p *Priority) Scan(src any) error {
	return scanEnum("priority", priorities, p, src)
}

// Value implements the driver.Valuer interface for Priority.
func (p Priority) Value() (driver.Value, error) {
	return enumValue("priority", priorities, p)
}

// UnmarshalText rejects unknown priority values.
func (p *Priority) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePriority(string(b))
	return err
}

// ItemCategory groups remediation items by the kind of work involved.
type ItemCategory string

const (
	CategoryQuickWin   ItemCategory = "quick_win"
	CategoryStructural ItemCategory = "structural"
	CategoryContent    ItemCategory = "content"
	CategoryTraining   ItemCategory = "training"
	CategoryTechnical  ItemCategory = "technical"
)

var itemCategories = []ItemCategory{CategoryQuickWin, CategoryStructural, CategoryContent, CategoryTraining, CategoryTechnical}

// ParseItemCategory validates s as a item category.
func ParseItemCategory(s string) (ItemCategory, error) {
	return parseEnum("item category", itemCategories, s)
}

// Scan implements the sql.Scanner interface for ItemCategory.
func (c *ItemCategory) Scan(src any) error {
	return scanEnum("item category", itemCategories, c, src)
}

// Value implements the driver.Valuer interface for ItemCategory.
func (c ItemCategory) Value() (driver.Value, error) {
	return enumValue("item category", itemCategories, c)
}

// UnmarshalText rejects unknown item category values.
func (c *ItemCategory) UnmarshalText(b []byte) (err error) {
	*c, err = ParseItemCategory(string(b))
	return err
}
