package forms

import (
	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// Messages are French, like the rest of the user interface.
const (
	msgNotBlank      = "Cette valeur ne doit pas être vide."
	msgTooShort      = "Cette chaîne est trop courte. Elle doit avoir au minimum {{ limit }} caractères."
	msgTooLong       = "Cette chaîne est trop longue. Elle doit avoir au maximum {{ limit }} caractères."
	msgChoice        = "La valeur {{ value }} n'est pas un choix valide."
	msgDate          = "Cette valeur n'est pas une date valide."
	msgURL           = "Cette valeur n'est pas une URL valide."
	msgColor         = "Cette valeur doit être une couleur au format #rrggbb."
	msgEndBeforeFrom = "La date de fin doit être postérieure ou égale à la date de début ({{ compared_value }})."
	msgRange         = "Cette valeur doit être comprise entre {{ min }} et {{ max }}."
	msgNumber        = "Cette valeur doit être un nombre."
	msgInteger       = "Cette valeur doit être un nombre entier."
	msgExtraFields   = "Ce formulaire ne doit pas contenir de champs supplémentaires ({{ value }})."
)

// Form names.
const (
	CampaignForm   = "campaign"
	ProjectForm    = "project"
	ActionPlanForm = "action_plan"
)

// DefaultProjectColor is the color proposed for new projects.
const DefaultProjectColor = "#3b82f6"

func nameField(label, placeholder string) Field {
	return Field{
		Name:     "name",
		Widget:   WidgetText,
		Label:    label,
		Required: true,
		Attr:     map[string]string{"placeholder": placeholder},
		Constraints: []Constraint{
			NotBlank{Message: msgNotBlank},
			Length{Min: 3, Max: 255, MinMessage: msgTooShort, MaxMessage: msgTooLong},
		},
	}
}

func descriptionField(placeholder string) Field {
	return Field{
		Name:   "description",
		Widget: WidgetTextarea,
		Label:  "Description",
		Attr:   map[string]string{"rows": "4", "placeholder": placeholder},
	}
}

func dateField(name, label string, extra ...Constraint) Field {
	return Field{
		Name:        name,
		Widget:      WidgetDate,
		Label:       label,
		Constraints: append([]Constraint{Date{Message: msgDate}}, extra...),
	}
}

// choiceField builds a select over values labelled through labels.
func choiceField[T ~string](name, label string, values []T, labels map[T]string, def T) Field {
	opts := make([]Option, 0, len(values))
	allowed := make([]string, 0, len(values))
	for _, v := range values {
		opts = append(opts, Option{Value: string(v), Label: labels[v]})
		allowed = append(allowed, string(v))
	}
	return Field{
		Name:        name,
		Widget:      WidgetChoice,
		Label:       label,
		Required:    true,
		Choices:     opts,
		Default:     string(def),
		Constraints: []Constraint{Choice{Choices: allowed, Message: msgChoice}},
	}
}

func rateField(name, label string) Field {
	return Field{
		Name:   name,
		Widget: WidgetNumber,
		Label:  label,
		Help:   "En pourcentage, de 0 à 100.",
		Attr:   map[string]string{"min": "0", "max": "100", "step": "0.01"},
		Constraints: []Constraint{
			Range{Min: 0, Max: 100, NotInRangeMessage: msgRange, InvalidMessage: msgNumber},
		},
	}
}

// CampaignType is the audit campaign form.
func CampaignType() *Descriptor {
	return NewDescriptor(CampaignForm,
		nameField("Nom de la campagne", "Ex : Audit initial 2024"),
		descriptionField("Objectifs et périmètre de la campagne"),
		dateField("start_date", "Date de début"),
		dateField("end_date", "Date de fin",
			DateNotBefore{Field: "start_date", Message: msgEndBeforeFrom}),
		choiceField("status", "Statut", models.CampaignStatuses(), map[models.CampaignStatus]string{
			models.CampaignDraft:      "Brouillon",
			models.CampaignInProgress: "En cours",
			models.CampaignCompleted:  "Terminée",
			models.CampaignArchived:   "Archivée",
		}, models.CampaignDraft),
		choiceField("sample_type", "Type d'échantillon", models.SampleTypes(), map[models.SampleType]string{
			models.SampleCustom:         "Personnalisé",
			models.SampleRepresentative: "Représentatif (RGAA)",
			models.SampleExhaustive:     "Exhaustif",
		}, models.SampleCustom),
	)
}

// ProjectType is the project form.
func ProjectType() *Descriptor {
	color := Field{
		Name:        "color",
		Widget:      WidgetColor,
		Label:       "Couleur",
		Help:        "Couleur d'identification du projet dans les listes.",
		Default:     DefaultProjectColor,
		Constraints: []Constraint{NewRegex(`^#[0-9a-fA-F]{6}$`, msgColor)},
	}
	return NewDescriptor(ProjectForm,
		nameField("Nom du projet", "Ex : Site institutionnel"),
		Field{
			Name:        "client",
			Widget:      WidgetText,
			Label:       "Client",
			Attr:        map[string]string{"placeholder": "Nom du client"},
			Constraints: []Constraint{Length{Max: 255, MaxMessage: msgTooLong}},
		},
		descriptionField("Contexte du projet"),
		Field{
			Name:        "url",
			Widget:      WidgetURL,
			Label:       "URL du site",
			Attr:        map[string]string{"placeholder": "https://"},
			Constraints: []Constraint{URL{Message: msgURL}, Length{Max: 500, MaxMessage: msgTooLong}},
		},
		color,
		choiceField("status", "Statut", models.ProjectStatuses(), map[models.ProjectStatus]string{
			models.ProjectActive:    "Actif",
			models.ProjectCompleted: "Terminé",
			models.ProjectArchived:  "Archivé",
		}, models.ProjectActive),
	)
}

// ActionPlanType is the pluriannual action plan form.
func ActionPlanType() *Descriptor {
	start := dateField("start_date", "Date de début", NotBlank{Message: msgNotBlank})
	start.Required = true
	end := dateField("end_date", "Date de fin",
		NotBlank{Message: msgNotBlank},
		DateNotBefore{Field: "start_date", Message: msgEndBeforeFrom})
	end.Required = true
	return NewDescriptor(ActionPlanForm,
		nameField("Nom du plan", "Ex : Schéma pluriannuel 2024-2026"),
		descriptionField("Contexte et engagements du plan"),
		start,
		end,
		Field{
			Name:    "duration_years",
			Widget:  WidgetNumber,
			Label:   "Durée (années)",
			Default: "3",
			Attr:    map[string]string{"min": "1", "max": "10"},
			Constraints: []Constraint{Range{
				Min: models.MinPlanYears, Max: models.MaxPlanYears, Integer: true,
				NotInRangeMessage: msgRange, InvalidMessage: msgInteger,
			}},
		},
		rateField("current_conformity_rate", "Taux de conformité actuel"),
		rateField("target_conformity_rate", "Taux de conformité visé"),
	)
}
