// Package pb holds the request and response messages of the coordinator API.
package pb

type RegisterScannerRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=500"`
	ContactEmail string `json:"contactEmail" validate:"required,email,max=255"`
}

func (x *RegisterScannerRequest) GetName() string {
	if x != nil {
		return x.Name
	}
	return ""
}

func (x *RegisterScannerRequest) GetDescription() string {
	if x != nil {
		return x.Description
	}
	return ""
}

func (x *RegisterScannerRequest) GetContactEmail() string {
	if x != nil {
		return x.ContactEmail
	}
	return ""
}

// RegisterScannerResponse is the only message that ever carries the api key.
type RegisterScannerResponse struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ContactEmail string `json:"contactEmail"`
	ApiKey       string `json:"apiKey"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

type HeartbeatRequest struct {
	Id     string `json:"id"`
	ApiKey string `json:"-"`
}

func (x *HeartbeatRequest) GetId() string {
	if x != nil {
		return x.Id
	}
	return ""
}

func (x *HeartbeatRequest) GetApiKey() string {
	if x != nil {
		return x.ApiKey
	}
	return ""
}

type HeartbeatResponse struct {
	Id              string `json:"id"`
	LastHeartbeatAt string `json:"lastHeartbeatAt"`
	Status          string `json:"status"`
}

type FleetMetricsResponse struct {
	TotalScanners           int64   `json:"totalScanners"`
	ActiveScanners          int64   `json:"activeScanners"`
	OfflineScanners         int64   `json:"offlineScanners"`
	DegradedScanners        int64   `json:"degradedScanners"`
	PendingScanners         int64   `json:"pendingScanners"`
	AverageSuccessRate      float64 `json:"averageSuccessRate"`
	TotalJobsCompleted      int64   `json:"totalJobsCompleted"`
	TotalJobsFailed         int64   `json:"totalJobsFailed"`
	AverageCompletionTimeMs float64 `json:"averageCompletionTimeMs"`
}

// Scanner is the operator view of a record. The api key is never included.
type Scanner struct {
	Id                      string `json:"id"`
	Name                    string `json:"name"`
	Description             string `json:"description"`
	ContactEmail            string `json:"contactEmail"`
	Status                  string `json:"status"`
	SuccessRate             int    `json:"successRate"`
	AverageCompletionTimeMs int64  `json:"averageCompletionTimeMs"`
	TotalJobsCompleted      int64  `json:"totalJobsCompleted"`
	TotalJobsFailed         int64  `json:"totalJobsFailed"`
	CurrentActiveJobs       int    `json:"currentActiveJobs"`
	IsBlacklisted           bool   `json:"isBlacklisted"`
	BlacklistedUntil        string `json:"blacklistedUntil,omitempty"`
	LastHeartbeatAt         string `json:"lastHeartbeatAt,omitempty"`
	CreatedAt               string `json:"createdAt"`
	UpdatedAt               string `json:"updatedAt"`
}

type GetScannerRequest struct {
	Id string `json:"id"`
}

func (x *GetScannerRequest) GetId() string {
	if x != nil {
		return x.Id
	}
	return ""
}

type ListScannersRequest struct {
	Status      string `json:"status" validate:"omitempty,oneof=pending online offline degraded"`
	Blacklisted *bool  `json:"blacklisted"`
	Limit       int    `json:"limit" validate:"gte=0,lte=500"`
	Offset      int    `json:"offset" validate:"gte=0"`
}

func (x *ListScannersRequest) GetStatus() string {
	if x != nil {
		return x.Status
	}
	return ""
}

func (x *ListScannersRequest) GetBlacklisted() *bool {
	if x != nil {
		return x.Blacklisted
	}
	return nil
}

func (x *ListScannersRequest) GetLimit() int {
	if x != nil {
		return x.Limit
	}
	return 0
}

func (x *ListScannersRequest) GetOffset() int {
	if x != nil {
		return x.Offset
	}
	return 0
}

type ListScannersResponse struct {
	Count    int        `json:"count"`
	Scanners []*Scanner `json:"scanners"`
}

type RankedScanner struct {
	Scanner *Scanner `json:"scanner"`
	Weight  int      `json:"weight"`
}

type RankScannersResponse struct {
	EvaluatedAt string           `json:"evaluatedAt"`
	Scanners    []*RankedScanner `json:"scanners"`
}

type RecordOutcomeRequest struct {
	Id               string `json:"-"`
	CompletionTimeMs *int64 `json:"completionTimeMs" validate:"required,gte=0"`
	Success          *bool  `json:"success" validate:"required"`
}

func (x *RecordOutcomeRequest) GetId() string {
	if x != nil {
		return x.Id
	}
	return ""
}

func (x *RecordOutcomeRequest) GetCompletionTimeMs() int64 {
	if x != nil && x.CompletionTimeMs != nil {
		return *x.CompletionTimeMs
	}
	return 0
}

func (x *RecordOutcomeRequest) GetSuccess() bool {
	if x != nil && x.Success != nil {
		return *x.Success
	}
	return false
}

type BlacklistRequest struct {
	Id    string `json:"-"`
	Until string `json:"until" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (x *BlacklistRequest) GetId() string {
	if x != nil {
		return x.Id
	}
	return ""
}

func (x *BlacklistRequest) GetUntil() string {
	if x != nil {
		return x.Until
	}
	return ""
}
