package grpc

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/dashboard"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/goal"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/vesting"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField reads a string field. Numbers are accepted and formatted without exponent.
func stringField(req *structpb.Struct, name string) (string, error) {
	value, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return "", nil
	case *structpb.Value_StringValue:
		return strings.TrimSpace(kind.StringValue), nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64), nil
	default:
		return "", domain.NewValidationError(name, "must be a string")
	}
}

func requiredUUID(req *structpb.Struct, name string) (uuid.UUID, error) {
	raw, err := stringField(req, name)
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(name, "is required")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "invalid ID format")
	}
	return id, nil
}

func optionalUUID(req *structpb.Struct, name string) (*uuid.UUID, error) {
	raw, err := stringField(req, name)
	if err != nil || raw == "" {
		return nil, err
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "invalid ID format")
	}
	return &id, nil
}

func amountField(req *structpb.Struct, name string) (decimal.Decimal, error) {
	raw, err := stringField(req, name)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.ParseMoney(name, raw)
}

// intField reads a whole number; a missing field yields fallback
func intField(req *structpb.Struct, name string, fallback int) (int, error) {
	value, ok := req.GetFields()[name]
	if !ok {
		return fallback, nil
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return fallback, nil
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, domain.NewValidationError(name, "must be a whole number")
		}
		return int(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return 0, domain.NewValidationError(name, "must be a whole number")
		}
		return n, nil
	default:
		return 0, domain.NewValidationError(name, "must be a whole number")
	}
}

func money(amount decimal.Decimal) string {
	return amount.StringFixed(domain.MoneyPlaces)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func optionalTimestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return timestamp(*t)
}

func vaultFields(v *domain.Vault) interface{} {
	if v == nil {
		return nil
	}
	return map[string]interface{}{
		"id":                 v.ID.String(),
		"vault_type":         string(v.VaultType),
		"display_name":       v.VaultType.DisplayName(),
		"balance":            money(v.Balance),
		"vesting_start_date": optionalTimestamp(v.VestingStartDate),
		"locked_until":       optionalTimestamp(v.LockedUntil),
		"created_at":         timestamp(v.CreatedAt),
		"updated_at":         timestamp(v.UpdatedAt),
	}
}

func vaultList(vaults []*domain.Vault) []interface{} {
	out := make([]interface{}, 0, len(vaults))
	for _, v := range vaults {
		out = append(out, vaultFields(v))
	}
	return out
}

func transactionFields(tx *domain.Transaction) interface{} {
	if tx == nil {
		return nil
	}
	return map[string]interface{}{
		"id":          tx.ID.String(),
		"vault_id":    tx.VaultID.String(),
		"amount":      money(tx.Amount),
		"kind":        string(tx.Kind),
		"description": tx.Description,
		"created_at":  timestamp(tx.CreatedAt),
	}
}

func transactionList(txs []*domain.Transaction) []interface{} {
	out := make([]interface{}, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionFields(tx))
	}
	return out
}

func goalFields(g *goal.GoalView) map[string]interface{} {
	return map[string]interface{}{
		"id":            g.ID.String(),
		"name":          g.Name,
		"target_amount": money(g.TargetAmount),
		"saved_amount":  money(g.SavedAmount),
		"status":        string(g.Status),
		"progress":      g.Progress.StringFixed(1),
		"remaining":     money(g.Remaining),
		"created_at":    timestamp(g.CreatedAt),
		"updated_at":    timestamp(g.UpdatedAt),
	}
}

func pensionFields(s vesting.Status) map[string]interface{} {
	var targetYear interface{}
	if s.TargetYear != nil {
		targetYear = *s.TargetYear
	}
	return map[string]interface{}{
		"state":              string(s.State),
		"vesting_start_date": optionalTimestamp(s.VestingStartDate),
		"unlock_at":          optionalTimestamp(s.UnlockAt),
		"vested_at":          optionalTimestamp(s.VestedAt),
		"years_vested":       s.YearsVested,
		"target_year":        targetYear,
		"bonus_eligible":     s.BonusEligible,
		"bonus_reason":       s.BonusReason,
		"projected_bonus":    money(s.ProjectedBonus),
	}
}

func reconciliationList(report *dashboard.ReconcileReport) []interface{} {
	out := make([]interface{}, 0, len(report.Vaults))
	for _, v := range report.Vaults {
		out = append(out, map[string]interface{}{
			"vault_id":   v.VaultID.String(),
			"vault_type": string(v.VaultType),
			"balance":    money(v.Balance),
			"replayed":   money(v.Replayed),
			"difference": money(v.Difference),
		})
	}
	return out
}
