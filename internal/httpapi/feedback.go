package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/outfitter-dev/firewatch/internal/feedback"
)

// FeedbackRequest is the POST /api/v1/feedback/{action} request body.
type FeedbackRequest struct {
	Repo    string   `json:"repo"`
	IDs     []string `json:"ids"`
	Body    string   `json:"body,omitempty"`
	All     bool     `json:"all,omitempty"`
	Confirm bool     `json:"confirm,omitempty"`
	Resolve bool     `json:"resolve,omitempty"`
	Draft   *bool    `json:"draft,omitempty"`
	Labels  []string `json:"labels,omitempty"`

	// Edit-only sub-fields, mirroring feedback.ActionOpts.
	Title           *string  `json:"title,omitempty"`
	EditBody        *string  `json:"edit_body,omitempty"`
	Base            *string  `json:"base,omitempty"`
	MilestoneSet    bool     `json:"milestone_set,omitempty"`
	MilestoneID     *string  `json:"milestone_id,omitempty"`
	RemoveLabels    []string `json:"remove_labels,omitempty"`
	AddReviewers    []string `json:"add_reviewers,omitempty"`
	RemoveReviewers []string `json:"remove_reviewers,omitempty"`
	AddAssignees    []string `json:"add_assignees,omitempty"`
	RemoveAssignees []string `json:"remove_assignees,omitempty"`
}

// Feedback dispatches a feedback action (ack, reply, close, resolve,
// approve, reject, edit) named by the {action} path segment against the
// request body's repo and ids.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	if h.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback bridge is not configured")
		return
	}

	action := feedback.Action(r.PathValue("action"))

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Repo == "" || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "repo and ids are required")
		return
	}

	outcomes, err := h.feedback.Dispatch(r.Context(), req.Repo, req.IDs, action, feedback.ActionOpts{
		Body:            req.Body,
		All:             req.All,
		Confirm:         req.Confirm,
		Resolve:         req.Resolve,
		Draft:           req.Draft,
		Labels:          req.Labels,
		Title:           req.Title,
		EditBody:        req.EditBody,
		Base:            req.Base,
		MilestoneSet:    req.MilestoneSet,
		MilestoneID:     req.MilestoneID,
		RemoveLabels:    req.RemoveLabels,
		AddReviewers:    req.AddReviewers,
		RemoveReviewers: req.RemoveReviewers,
		AddAssignees:    req.AddAssignees,
		RemoveAssignees: req.RemoveAssignees,
	})
	if err != nil {
		h.logger.Error("feedback dispatch failed", "repo", req.Repo, "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, outcomes)
}
