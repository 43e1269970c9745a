package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

var validTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.RequestStatusNew:        {domain.RequestStatusInProgress, domain.RequestStatusScrap},
	domain.RequestStatusInProgress: {domain.RequestStatusRepaired, domain.RequestStatusScrap},
	domain.RequestStatusRepaired:   {domain.RequestStatusScrap},
	domain.RequestStatusScrap:      {},
}

// ValidNextTransitions returns the statuses reachable from current. An empty
// slice means current is terminal.
func ValidNextTransitions(current domain.RequestStatus) []domain.RequestStatus {
	allowed := validTransitions[current]
	out := make([]domain.RequestStatus, len(allowed))
	copy(out, allowed)
	return out
}

// Transitions returns a copy of the whole transition table.
func Transitions() map[domain.RequestStatus][]domain.RequestStatus {
	out := make(map[domain.RequestStatus][]domain.RequestStatus, len(validTransitions))
	for from := range validTransitions {
		out[from] = ValidNextTransitions(from)
	}
	return out
}

// ValidateTransition fails with KindInvalidTransition when target is not reachable from current.
func ValidateTransition(current, target domain.RequestStatus) error {
	for _, candidate := range validTransitions[current] {
		if candidate == target {
			return nil
		}
	}
	return invalidTransition(current, target, ValidNextTransitions(current))
}

// Result is the confirmation returned by a successful operation.
type Result struct {
	Message    string
	Status     domain.RequestStatus
	Technician string
	Duration   *float64
}

// Engine runs lifecycle operations against already-loaded records. Operations
// either fail before touching the request or apply their whole effect.
type Engine struct {
	permissions PermissionChecker
	now         func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for overdue calculations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs the engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Permissions exposes the checker used by the engine.
func (e *Engine) Permissions() PermissionChecker {
	return e.permissions
}

// AssignTechnician sets the technician on a request without changing its status.
func (e *Engine) AssignTechnician(req *domain.MaintenanceRequest, technician, actor *domain.User) (Result, error) {
	if req.Equipment == nil {
		return Result{}, missingData("request %s has no equipment loaded", requestLabel(req))
	}
	if req.Equipment.IsScrapped {
		return Result{}, missingData("cannot assign technician: equipment %q is scrapped; no further work can be assigned to it", req.Equipment.Name)
	}
	if !e.permissions.CanAssignTechnician(actor, req) {
		return Result{}, permissionDenied("%s cannot assign technicians; only managers and members of the assigned team can assign", strings.ToUpper(string(RoleOf(actor))))
	}
	if req.AssignedTeam == nil {
		return Result{}, missingData("cannot assign technician: request has no assigned team; auto-assign a team from the equipment default first")
	}
	if technician == nil {
		return Result{}, validationFailed("technician is required")
	}
	if !e.permissions.BelongsToTeam(technician, req.AssignedTeam) {
		return Result{}, validationFailed("technician %s is not a member of the assigned team %q", technician.DisplayName(), req.AssignedTeam.Name)
	}

	techID := technician.ID
	req.AssignedTechnicianID = &techID
	req.AssignedTechnician = technician

	return Result{
		Message:    fmt.Sprintf("assigned technician %s to request %s", technician.DisplayName(), requestLabel(req)),
		Status:     req.Status,
		Technician: technician.DisplayName(),
	}, nil
}

// StartWork moves a request from NEW to IN_PROGRESS.
func (e *Engine) StartWork(req *domain.MaintenanceRequest, actor *domain.User) (Result, error) {
	if req.AssignedTechnicianID == nil {
		return Result{}, missingData("cannot start work: no technician assigned; assign a technician first")
	}
	if err := ValidateTransition(req.Status, domain.RequestStatusInProgress); err != nil {
		return Result{}, err
	}
	if !e.permissions.CanStartWork(actor, req) {
		return Result{}, permissionDenied("only the assigned technician or a manager can start work; this request is assigned to %s", technicianLabel(req))
	}

	req.Status = domain.RequestStatusInProgress
	return Result{
		Message: fmt.Sprintf("started work on request %s", requestLabel(req)),
		Status:  req.Status,
	}, nil
}

// CompleteWork moves a request from IN_PROGRESS to REPAIRED and records the hours spent.
func (e *Engine) CompleteWork(req *domain.MaintenanceRequest, durationHours string, actor *domain.User) (Result, error) {
	if durationHours == "" {
		return Result{}, missingData("duration (in hours) is required to complete maintenance work")
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(durationHours), 64)
	if err != nil || math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return Result{}, missingData("invalid duration %q: must be a positive number", durationHours)
	}
	if err := ValidateTransition(req.Status, domain.RequestStatusRepaired); err != nil {
		return Result{}, err
	}
	if !e.permissions.CanCompleteWork(actor, req) {
		return Result{}, permissionDenied("only the assigned technician or a manager can complete work; this request is assigned to %s", technicianLabel(req))
	}

	req.Status = domain.RequestStatusRepaired
	req.DurationHours = &duration
	return Result{
		Message:  fmt.Sprintf("completed work on request %s (%s hours)", requestLabel(req), strconv.FormatFloat(duration, 'f', -1, 64)),
		Status:   req.Status,
		Duration: &duration,
	}, nil
}

// ScrapRequest moves any non-terminal request to SCRAP. Marking the equipment
// scrapped is left to the caller.
func (e *Engine) ScrapRequest(req *domain.MaintenanceRequest, actor *domain.User) (Result, error) {
	if !e.permissions.CanScrapRequest(actor, req) {
		return Result{}, permissionDenied("only managers can scrap requests")
	}
	if err := ValidateTransition(req.Status, domain.RequestStatusScrap); err != nil {
		return Result{}, err
	}

	req.Status = domain.RequestStatusScrap
	return Result{
		Message: fmt.Sprintf("marked request %s as scrapped (terminal state)", requestLabel(req)),
		Status:  req.Status,
	}, nil
}

// ValidateCreation checks that actor may open a request of the given type. It
// does not create anything.
func (e *Engine) ValidateCreation(requestType domain.RequestType, actor *domain.User, scheduledDate *time.Time, equipment *domain.Equipment) (Result, error) {
	if equipment == nil {
		return Result{}, missingData("equipment is required to create a maintenance request")
	}
	if equipment.IsScrapped {
		return Result{}, missingData("cannot create maintenance request: equipment %q is scrapped", equipment.Name)
	}
	if !requestType.Valid() {
		return Result{}, validationFailed("unknown request type %q", requestType)
	}
	if requestType == domain.RequestTypePreventive {
		if !e.permissions.IsManager(actor) {
			return Result{}, permissionDenied("only managers can create preventive maintenance requests; your current role: %s", strings.ToUpper(string(RoleOf(actor))))
		}
		if scheduledDate == nil || scheduledDate.IsZero() {
			return Result{}, missingData("preventive maintenance requests require a scheduled date")
		}
	}
	return Result{
		Message: fmt.Sprintf("user authorized to create %s request", requestType),
		Status:  domain.RequestStatusNew,
	}, nil
}

func requestLabel(req *domain.MaintenanceRequest) string {
	if req.ExternalKey != "" {
		return req.ExternalKey
	}
	return "#" + req.ID
}

func technicianLabel(req *domain.MaintenanceRequest) string {
	if req.AssignedTechnician != nil {
		return req.AssignedTechnician.DisplayName()
	}
	if req.AssignedTechnicianID != nil {
		return *req.AssignedTechnicianID
	}
	return "nobody"
}
