package httpapi

import (
	"gardenbot/internal/domain"
)

type optionsResponse struct {
	Styles          []optionItem `json:"styles"`
	Sizes           []optionItem `json:"sizes"`
	SunlightLevels  []optionItem `json:"sunlight_levels"`
	Features        []string     `json:"features"`
	EditSuggestions []string     `json:"edit_suggestions"`
	MaxHistoryItems int          `json:"max_history_items"`
}

type optionItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type generateRequest struct {
	Style             string   `json:"style"`
	Size              string   `json:"size"`
	Sunlight          string   `json:"sunlight"`
	Features          []string `json:"features"`
	CustomDescription string   `json:"custom_description"`
}

// preferences は、リクエストからガーデンの条件を組み立てます
// 指定のない項目はデフォルト値を使います
func (req generateRequest) preferences() (domain.GardenPreferences, error) {
	prefs := domain.DefaultGardenPreferences()

	if req.Style != "" {
		style, err := domain.ParseGardenStyle(req.Style)
		if err != nil {
			return prefs, err
		}
		prefs.Style = style
	}
	if size := domain.ResolveGardenSize(req.Size); size != "" {
		prefs.Size = size
	}
	if req.Sunlight != "" {
		level, err := domain.ParseSunlightLevel(req.Sunlight)
		if err != nil {
			return prefs, err
		}
		prefs.Sunlight = level
	}
	for _, feature := range req.Features {
		if !prefs.HasFeature(feature) {
			prefs.ToggleFeature(feature)
		}
	}
	prefs.CustomDescription = req.CustomDescription

	return prefs, prefs.Validate()
}

type editRequest struct {
	Instruction string `json:"instruction"`
}

type sessionResponse struct {
	SessionID    string               `json:"session_id"`
	Status       domain.SessionStatus `json:"status"`
	CurrentImage string               `json:"current_image,omitempty"`
	IsLoading    bool                 `json:"is_loading"`
	Error        string               `json:"error,omitempty"`
	History      []domain.HistoryItem `json:"history"`
}

func newSessionResponse(id string, state domain.SessionState) *sessionResponse {
	history := state.History.Items()
	if history == nil {
		history = []domain.HistoryItem{}
	}
	return &sessionResponse{
		SessionID:    id,
		Status:       state.Status(),
		CurrentImage: state.CurrentImage.String(),
		IsLoading:    state.IsLoading,
		Error:        state.Error,
		History:      history,
	}
}

func buildOptions() optionsResponse {
	resp := optionsResponse{
		Features:        domain.AvailableFeatures(),
		EditSuggestions: domain.EditSuggestions(),
		MaxHistoryItems: domain.MaxHistoryItems,
	}
	for _, style := range domain.AllGardenStyles() {
		resp.Styles = append(resp.Styles, optionItem{Key: style.Key(), Label: style.String()})
	}
	for _, size := range domain.AllGardenSizes() {
		resp.Sizes = append(resp.Sizes, optionItem{Key: size.Key, Label: size.Label})
	}
	for _, level := range domain.AllSunlightLevels() {
		resp.SunlightLevels = append(resp.SunlightLevels, optionItem{Key: level.Key(), Label: level.String()})
	}
	return resp
}
