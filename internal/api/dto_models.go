package api

import (
	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/models"
	"qaflow-backend-go/internal/notify"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WorkspaceStateResponse is the response of GET /workspace/state: the
// resolved UI state plus the data the surfaces behind it render from.
type WorkspaceStateResponse struct {
	State                 string                `json:"state"`
	LoadingMessage        string                `json:"loadingMessage,omitempty"`
	SuiteModalDismissible bool                  `json:"suiteModalDismissible"`
	ShowTipsOverlay       bool                  `json:"showTipsOverlay"`
	Capabilities          core.Capabilities     `json:"capabilities"`
	Profile               *models.UserProfile   `json:"profile,omitempty"`
	Suites                []*models.Suite       `json:"suites"`
	ActiveSuiteID         string                `json:"activeSuiteId,omitempty"`
	PartialFailure        bool                  `json:"partialFailure,omitempty"`
	InteractionCount      int                   `json:"interactionCount"`
	Notifications         []notify.Notification `json:"notifications"`
	ForcedNavigation      string                `json:"forcedNavigation,omitempty"`
}

// InteractionResponse is the response of POST /workspace/interactions.
type InteractionResponse struct {
	Count           int  `json:"count"`
	ShowTipsOverlay bool `json:"showTipsOverlay"`
}

// ActiveSuiteRequest is the request body of PUT /workspace/active-suite.
// An empty SuiteID clears the stored selection.
type ActiveSuiteRequest struct {
	SuiteID string `json:"suiteId"`
}

func workspaceStateResponse(view core.WorkspaceView) WorkspaceStateResponse {
	resp := WorkspaceStateResponse{
		State:                 view.Resolution.State.String(),
		LoadingMessage:        view.Resolution.LoadingMessage,
		SuiteModalDismissible: view.Resolution.SuiteModalDismissible,
		ShowTipsOverlay:       view.Resolution.ShowTipsOverlay,
		Capabilities:          view.Capabilities,
		Profile:               view.Profile,
		Suites:                view.Suites,
		PartialFailure:        view.PartialFailure,
		InteractionCount:      view.InteractionCount,
		Notifications:         view.Notifications,
		ForcedNavigation:      view.ForcedNavigation,
	}
	if view.ActiveSuite != nil {
		resp.ActiveSuiteID = view.ActiveSuite.ID
	}
	if resp.Suites == nil {
		resp.Suites = []*models.Suite{}
	}
	if resp.Notifications == nil {
		resp.Notifications = []notify.Notification{}
	}
	return resp
}
