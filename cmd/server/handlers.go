package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Simplici0/partpricing/internal/core/errx"
	"github.com/Simplici0/partpricing/internal/export"
	"github.com/Simplici0/partpricing/internal/ingest"
	"github.com/Simplici0/partpricing/internal/pricing"
	"github.com/Simplici0/partpricing/internal/service"
	"github.com/Simplici0/partpricing/internal/store"
	"github.com/Simplici0/partpricing/pkg/logx"
)

const appName = "Ozwide Pricing Calculator"

type errorBody struct {
	Error string `json:"error"`
}

type versionBody struct {
	Version int64 `json:"version"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	if errors.Is(err, ingest.ErrUnsupportedFormat) {
		err = errx.BadRequest(err)
	}

	appErr := errx.FromPricing(err)
	if appErr.Status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, appErr.Status, errorBody{Error: appErr.Message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errx.BadRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "app": appName})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid form"})
			return
		}
		req.Email, req.Password = r.FormValue("email"), r.FormValue("password")
	}

	valid, err := s.auth.validateCredentials(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	if err := s.auth.setSessionCookie(w, strings.TrimSpace(req.Email)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": strings.TrimSpace(req.Email)})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type markupTableBody struct {
	Version int64             `json:"version"`
	Bands   []store.MarkupRow `json:"bands"`
}

func (s *server) handleGetMarkupTable(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.ConfigVersion(r.Context())
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	rows, err := s.store.MarkupRows(r.Context())
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	writeJSON(w, http.StatusOK, markupTableBody{Version: version, Bands: rows})
}

func (s *server) handleReplaceMarkupTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bands []pricing.MarkupBand `json:"bands"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	table, err := pricing.NewMarkupTable(req.Bands)
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := s.store.ReplaceMarkupTable(r.Context(), table, store.ChangeBulkReplace)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

func (s *server) handleResetMarkupTable(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.ResetMarkupTable(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

type increaseRequest struct {
	Percentage *float64 `json:"percentage"`
	Category   string   `json:"category"`
}

func (req increaseRequest) pct() (float64, error) {
	if req.Percentage == nil {
		return 0, errx.BadRequest(errors.New("percentage is required"))
	}
	return *req.Percentage, nil
}

func (s *server) handleIncreaseMarkup(w http.ResponseWriter, r *http.Request) {
	var req increaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pct, err := req.pct()
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := s.store.IncreaseMarkup(r.Context(), pct)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

type categoriesBody struct {
	Version    int64                 `json:"version"`
	Categories []store.MultiplierRow `json:"categories"`
}

func (s *server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.ConfigVersion(r.Context())
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	rows, err := s.store.MultiplierRows(r.Context())
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	writeJSON(w, http.StatusOK, categoriesBody{Version: version, Categories: rows})
}

func (s *server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := url.PathUnescape(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, errx.BadRequest(errors.New("invalid category")))
		return
	}
	category = strings.TrimSpace(category)
	var req struct {
		Multiplier *float64 `json:"multiplier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Multiplier == nil {
		writeError(w, r, errx.BadRequest(errors.New("multiplier is required")))
		return
	}
	version, err := s.store.SetMultiplier(r.Context(), category, *req.Multiplier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

func (s *server) handleIncreaseCategories(w http.ResponseWriter, r *http.Request) {
	var req increaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	pct, err := req.pct()
	if err != nil {
		writeError(w, r, err)
		return
	}
	version, err := s.store.IncreaseMultipliers(r.Context(), pct, strings.TrimSpace(req.Category))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

func (s *server) handleResetCategories(w http.ResponseWriter, r *http.Request) {
	version, err := s.store.ResetMultipliers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionBody{Version: version})
}

// readUpload parses the multipart "file" field into rows.
func (s *server) readUpload(r *http.Request) ([]pricing.PartRow, string, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, "", errx.BadRequest(fmt.Errorf("invalid upload: %w", err))
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errx.BadRequest(errors.New("file is required"))
	}
	defer file.Close()

	rows, err := ingest.Parse(file, header.Filename)
	if err != nil {
		return nil, "", err
	}
	return rows, header.Filename, nil
}

func (s *server) handleValidateUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	rows, _, err := s.readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.pricing.Validate(r.Context(), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func parseRunParams(r *http.Request) (pricing.RunParams, error) {
	params := pricing.DefaultRunParams()
	if v := r.FormValue("currency"); v != "" {
		params.Currency = pricing.ParseCurrency(v)
	}
	if v := r.FormValue("freight_mode"); v != "" {
		params.FreightMode = pricing.ParseFreightMode(v)
	}

	for field, dst := range map[string]*float64{
		"exchange_rate": &params.ExchangeRate,
		"freight_cost":  &params.FreightCost,
	} {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return pricing.RunParams{}, errx.BadRequest(fmt.Errorf("%s must be numeric", field))
		}
		*dst = v
	}
	return params, nil
}

func parseCategoryFixes(raw string) (map[int]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var byRow map[string]string
	if err := json.Unmarshal([]byte(raw), &byRow); err != nil {
		return nil, errx.BadRequest(fmt.Errorf("category_fixes must be a JSON object: %w", err))
	}
	fixes := make(map[int]string, len(byRow))
	for k, v := range byRow {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, errx.BadRequest(fmt.Errorf("category_fixes key %q is not a row index", k))
		}
		fixes[i] = v
	}
	return fixes, nil
}

func (s *server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	rows, filename, err := s.readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	params, err := parseRunParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	fixes, err := parseCategoryFixes(r.FormValue("category_fixes"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.pricing.Run(r.Context(), service.RunRequest{
		Rows:          rows,
		Params:        params,
		CategoryFixes: fixes,
		CreatedBy:     sessionEmail(r.Context()),
		SourceFile:    filename,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleListPricedParts(w http.ResponseWriter, r *http.Request) {
	parts, err := s.store.ListPricedParts(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, r, errx.WrapStorage(err))
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

// exportParts returns the parts of ?run_id=, or of the latest run.
func (s *server) exportParts(r *http.Request) ([]pricing.PricedPart, error) {
	var run store.Run
	var err error
	if raw := r.URL.Query().Get("run_id"); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return nil, errx.BadRequest(errors.New("run_id must be a UUID"))
		}
		run, err = s.store.GetRun(r.Context(), id)
	} else {
		run, err = s.store.LatestRun(r.Context())
	}
	if err != nil {
		return nil, err
	}

	stored, err := s.store.RunParts(r.Context(), run.ID)
	if err != nil {
		return nil, errx.WrapStorage(err)
	}
	parts := make([]pricing.PricedPart, len(stored))
	for i, p := range stored {
		parts[i] = p.PricedPart
	}
	return parts, nil
}

func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	parts, err := s.exportParts(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="priced_parts.csv"`)
	if err := export.WriteCSV(w, parts); err != nil {
		logx.Error().Err(err).Msg("failed to write csv export")
	}
}

func (s *server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	parts, err := s.exportParts(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := export.XLSX(parts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="priced_parts.xlsx"`)
	if _, err := w.Write(data); err != nil {
		logx.Error().Err(err).Msg("failed to write xlsx export")
	}
}
