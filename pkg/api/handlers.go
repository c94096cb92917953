package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rgaa-audit/audit-manager/pkg/cache"
	"github.com/rgaa-audit/audit-manager/pkg/forms"
	"github.com/rgaa-audit/audit-manager/pkg/models"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

// ListFormsHandler handles GET /api/forms
func ListFormsHandler(reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"forms": reg.Names()})
	}
}

// GetFormHandler handles GET /api/forms/{name}
func GetFormHandler(reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		d, ok := reg.Lookup(name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("form %q not found", name))
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// ListProjectsHandler handles GET /api/projects
// Query params: status
func ListProjectsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		filter := store.ProjectFilter{UserID: u.ID}
		if s := r.URL.Query().Get("status"); s != "" {
			status, err := models.ParseProjectStatus(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			filter.Status = status
		}
		projects, err := st.Projects.List(r.Context(), filter)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects, "totalSize": len(projects)})
	}
}

// CreateProjectHandler handles POST /api/projects
func CreateProjectHandler(st *store.Store, reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := decodeValues(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, _ := UserFromContext(r.Context())
		p := models.Project{UserID: u.ID}
		if err := bindForm(reg, forms.ProjectForm, values, &p, forms.BindProject); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := st.Projects.Create(r.Context(), &p); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// GetProjectHandler handles GET /api/projects/{projectId}
func GetProjectHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProject(w, r, st)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// UpdateProjectHandler handles PUT /api/projects/{projectId}
// Fields missing from the body are reset to their form default.
func UpdateProjectHandler(st *store.Store, reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProject(w, r, st)
		if !ok {
			return
		}
		values, err := decodeValues(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := bindForm(reg, forms.ProjectForm, values, p, forms.BindProject); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := st.Projects.Update(r.Context(), p); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// DeleteProjectHandler handles DELETE /api/projects/{projectId}
func DeleteProjectHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProject(w, r, st)
		if !ok {
			return
		}
		if err := st.Projects.Delete(r.Context(), p.ID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListCampaignsHandler handles GET /api/projects/{projectId}/campaigns
func ListCampaignsHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProject(w, r, st)
		if !ok {
			return
		}
		campaigns, err := st.Campaigns.ListByProject(r.Context(), p.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns, "totalSize": len(campaigns)})
	}
}

// CreateCampaignHandler handles POST /api/projects/{projectId}/campaigns
func CreateCampaignHandler(st *store.Store, reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadProject(w, r, st)
		if !ok {
			return
		}
		values, err := decodeValues(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c := models.Campaign{ProjectID: p.ID}
		if err := bindForm(reg, forms.CampaignForm, values, &c, forms.BindCampaign); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := st.Campaigns.Create(r.Context(), &c); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GetCampaignHandler handles GET /api/campaigns/{campaignId}
func GetCampaignHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadCampaign(w, r, st)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// RefreshCampaignHandler handles POST /api/campaigns/{campaignId}/refresh
func RefreshCampaignHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadCampaign(w, r, st)
		if !ok {
			return
		}
		refreshed, err := st.Campaigns.RefreshAggregates(r.Context(), c.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, refreshed)
	}
}

// ListActionPlansHandler handles GET /api/campaigns/{campaignId}/action-plans
func ListActionPlansHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadCampaign(w, r, st)
		if !ok {
			return
		}
		plans, err := st.ActionPlans.ListByCampaign(r.Context(), c.ID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"actionPlans": plans, "totalSize": len(plans)})
	}
}

// CreateActionPlanHandler handles POST /api/campaigns/{campaignId}/action-plans
func CreateActionPlanHandler(st *store.Store, reg *forms.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := loadCampaign(w, r, st)
		if !ok {
			return
		}
		values, err := decodeValues(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p := models.ActionPlan{CampaignID: c.ID}
		if err := bindForm(reg, forms.ActionPlanForm, values, &p, forms.BindActionPlan); err != nil {
			writeStoreError(w, err)
			return
		}
		if err := st.ActionPlans.Create(r.Context(), &p); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// ListVisualErrorCriteriaHandler handles GET /api/visual-error-criteria
func ListVisualErrorCriteriaHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := st.VisualErrors.List(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"criteria": rows, "totalSize": len(rows)})
	}
}

// RecordDetectionHandler handles POST /api/visual-error-criteria/{errorType}/detections
// Cached criteria lists are dropped once the counter moved.
func RecordDetectionHandler(st *store.Store, c *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := st.VisualErrors.RecordDetection(r.Context(), chi.URLParam(r, "errorType"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		c.InvalidateCriteria()
		writeJSON(w, http.StatusOK, row)
	}
}

func bindForm[T any](reg *forms.Registry, name string, values forms.Values, target *T, bind func(forms.Values, *T) error) error {
	d, ok := reg.Lookup(name)
	if !ok {
		return fmt.Errorf("form %q is not registered", name)
	}
	return forms.Bind(d, values, target, bind)
}

// loadProject fetches the {projectId} project. Projects of other users are
// reported as missing.
func loadProject(w http.ResponseWriter, r *http.Request, st *store.Store) (*models.Project, bool) {
	id, err := idParam(r, "projectId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	p, err := st.Projects.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	if u, _ := UserFromContext(r.Context()); u == nil || p.UserID != u.ID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("project %d not found", id))
		return nil, false
	}
	return p, true
}

// loadCampaign fetches the {campaignId} campaign, owned through its project.
func loadCampaign(w http.ResponseWriter, r *http.Request, st *store.Store) (*models.Campaign, bool) {
	id, err := idParam(r, "campaignId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	c, err := st.Campaigns.Get(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	if u, _ := UserFromContext(r.Context()); u == nil || c.Project == nil || c.Project.UserID != u.ID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("campaign %d not found", id))
		return nil, false
	}
	return c, true
}
