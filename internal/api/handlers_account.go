package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/accesslog-scanner/internal/models"
	"github.com/gorilla/mux"
)

// accountsPageSize is the fixed page size of the account list.
const accountsPageSize = 30

// bytesPerGB converts between the stored byte quotas and the GB values the
// admin surface works with.
const bytesPerGB = 1 << 30

// dateLayout is the wire format for availability dates.
const dateLayout = "2006-01-02"

// accountRequest is the create/update payload. Quotas are given in GB and
// stored in bytes. Metered contracts (contract_type "specific") carry no
// traffic quota.
type accountRequest struct {
	CustomerID     *string `json:"customerId,omitempty"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	ContractType   string  `json:"contractType"`
	DiskQuotaGB    float64 `json:"diskQuotaGb"`
	TrafficQuotaGB float64 `json:"trafficQuotaGb"`
	AvailabledOn   *string `json:"availabledOn,omitempty"`
	UnavailabledOn *string `json:"unavailabledOn,omitempty"`
}

// accountView is the account representation returned by the API, with
// quotas echoed in GB the way the admin edit form shows them.
type accountView struct {
	*models.Account
	DiskQuotaGB    float64  `json:"diskQuotaGb"`
	TrafficQuotaGB *float64 `json:"trafficQuotaGb,omitempty"`
}

func newAccountView(account *models.Account) *accountView {
	view := &accountView{
		Account:     account,
		DiskQuotaGB: float64(account.DiskQuota) / bytesPerGB,
	}

	// Metered contracts have no fixed traffic quota to show
	if account.ContractType != models.ContractTypeSpecific {
		gb := float64(account.TrafficQuota) / bytesPerGB
		view.TrafficQuotaGB = &gb
	}

	return view
}

// handleListAccounts handles GET /api/accounts - paginated account list
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid page number", nil)
			return
		}
		page = parsed
	}

	accounts, total, err := s.accounts.List(r.Context(), accountsPageSize, (page-1)*accountsPageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list accounts", nil)
		return
	}

	views := make([]*accountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, newAccountView(account))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": views,
		"pagination": map[string]interface{}{
			"page":     page,
			"pageSize": accountsPageSize,
			"total":    total,
		},
	})
}

// handleCreateAccount handles POST /api/accounts - Create a new account
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := s.accountFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.accounts.Create(r.Context(), account); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to create account", nil)
		return
	}

	respondJSON(w, http.StatusCreated, newAccountView(account))
}

// handleGetAccount handles GET /api/accounts/{id} - Get account by ID
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	account, err := s.accounts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Account not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, newAccountView(account))
}

// handleUpdateAccount handles PUT /api/accounts/{id} - Update an account
func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := s.accounts.GetByID(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Account not found", nil)
		return
	}

	account, ok := s.accountFromRequest(w, r)
	if !ok {
		return
	}
	account.ID = id

	if err := s.accounts.Update(r.Context(), account); err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to update account", nil)
		return
	}

	respondJSON(w, http.StatusOK, newAccountView(account))
}

// handleDeleteAccount handles DELETE /api/accounts/{id} - Delete an account
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.accounts.Delete(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Account not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleGetAccountTraffic handles GET /api/accounts/{id}/traffic - consumed
// traffic since a given time, default the start of the current month.
func (s *Server) handleGetAccountTraffic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	account, err := s.accounts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Account not found", nil)
		return
	}

	since := monthStart(time.Now())
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid since date (expected YYYY-MM-DD)", nil)
			return
		}
		since = parsed
	}

	total, err := s.traffic.TrafficTotalSince(r.Context(), account.ID, since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to sum traffic", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": account.ID,
		"since":     since.Format(dateLayout),
		"traffic":   total,
		"trafficGb": float64(total) / bytesPerGB,
	})
}

// accountFromRequest parses and validates the account payload. It responds
// with an error and returns false when the payload is unusable.
func (s *Server) accountFromRequest(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	var req accountRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return nil, false
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Name is required", nil)
		return nil, false
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Email is required", nil)
		return nil, false
	}

	contractType := models.ContractType(req.ContractType)
	if contractType == "" {
		contractType = models.ContractTypeFlat
	}
	if contractType != models.ContractTypeFlat && contractType != models.ContractTypeSpecific {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid contract type (must be 'flat' or 'specific')", nil)
		return nil, false
	}

	account := &models.Account{
		CustomerID:   req.CustomerID,
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ContractType: contractType,
		DiskQuota:    int64(req.DiskQuotaGB * bytesPerGB),
	}

	// Metered contracts have no fixed traffic quota
	if contractType != models.ContractTypeSpecific {
		account.TrafficQuota = int64(req.TrafficQuotaGB * bytesPerGB)
	}

	if req.AvailabledOn != nil {
		parsed, err := time.ParseInLocation(dateLayout, *req.AvailabledOn, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid availabledOn date (expected YYYY-MM-DD)", nil)
			return nil, false
		}
		account.AvailabledOn = &parsed
	}
	if req.UnavailabledOn != nil {
		parsed, err := time.ParseInLocation(dateLayout, *req.UnavailabledOn, time.Local)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid unavailabledOn date (expected YYYY-MM-DD)", nil)
			return nil, false
		}
		account.UnavailabledOn = &parsed
	}

	return account, true
}

// monthStart returns midnight on the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
