package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/account"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/dashboard"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/goal"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/ledger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/transfer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements the VaultLedgerService gRPC server
type Server struct {
	AccountService   *account.AccountService
	LedgerService    *ledger.LedgerService
	TransferService  *transfer.TransferService
	GoalService      *goal.GoalService
	DashboardService *dashboard.DashboardService
}

// NewServer creates a new gRPC server instance
func NewServer(
	accountService *account.AccountService,
	ledgerService *ledger.LedgerService,
	transferService *transfer.TransferService,
	goalService *goal.GoalService,
	dashboardService *dashboard.DashboardService,
) *Server {
	return &Server{
		AccountService:   accountService,
		LedgerService:    ledgerService,
		TransferService:  transferService,
		GoalService:      goalService,
		DashboardService: dashboardService,
	}
}

var _ VaultLedgerServiceServer = (*Server)(nil)

// OpenAccount handles the OpenAccount RPC
func (s *Server) OpenAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaults, err := s.AccountService.OpenAccount(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vaults": vaultList(vaults),
	})
}

// SetPensionTargetYear handles the SetPensionTargetYear RPC
func (s *Server) SetPensionTargetYear(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	year, err := intField(req, "year", 0)
	if err != nil {
		return nil, mapError(err)
	}

	if err := s.AccountService.SetPensionTargetYear(ctx, ownerID, year); err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"pension_target_year": year,
	})
}

// GetOverview handles the GetOverview RPC
func (s *Server) GetOverview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	overview, err := s.DashboardService.GetOverview(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vaults":        vaultList(overview.Vaults),
		"total_balance": money(overview.TotalBalance),
		"pension":       pensionFields(overview.Pension),
		"active_goals":  overview.ActiveGoals,
	})
}

// ListTransactions handles the ListTransactions RPC
func (s *Server) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaultID, err := optionalUUID(req, "vault_id")
	if err != nil {
		return nil, mapError(err)
	}
	limit, err := intField(req, "limit", 0)
	if err != nil {
		return nil, mapError(err)
	}
	offset, err := intField(req, "offset", 0)
	if err != nil {
		return nil, mapError(err)
	}

	page, err := s.DashboardService.ListTransactions(ctx, ownerID, vaultID, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"transactions": transactionList(page.Transactions),
		"total":        page.Total,
		"limit":        page.Limit,
		"offset":       page.Offset,
	})
}

// Reconcile handles the Reconcile RPC
func (s *Server) Reconcile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.DashboardService.Reconcile(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"balanced": report.Balanced,
		"vaults":   reconciliationList(report),
	})
}

// Deposit handles the Deposit RPC
func (s *Server) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaultID, err := requiredUUID(req, "vault_id")
	if err != nil {
		return nil, mapError(err)
	}
	amount, err := amountField(req, "amount")
	if err != nil {
		return nil, mapError(err)
	}
	rawMethod, err := stringField(req, "method")
	if err != nil {
		return nil, mapError(err)
	}
	method, err := ledger.ParseDepositMethod(rawMethod)
	if err != nil {
		return nil, mapError(err)
	}
	note, err := stringField(req, "note")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.Deposit(ctx, ledger.DepositInput{
		OwnerID: ownerID,
		VaultID: vaultID,
		Amount:  amount,
		Method:  method,
		Note:    note,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vault":        vaultFields(result.Vault),
		"transaction":  transactionFields(result.Transaction),
		"lock_started": result.LockStarted,
	})
}

// Withdraw handles the Withdraw RPC
func (s *Server) Withdraw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaultID, err := requiredUUID(req, "vault_id")
	if err != nil {
		return nil, mapError(err)
	}
	amount, err := amountField(req, "amount")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.Withdraw(ctx, ledger.WithdrawInput{
		OwnerID: ownerID,
		VaultID: vaultID,
		Amount:  amount,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vault":        vaultFields(result.Vault),
		"amount":       money(result.Amount),
		"fee":          money(result.Fee),
		"total_debit":  money(result.TotalDebit),
		"transactions": transactionList(result.Transactions),
	})
}

// WithdrawPensionFull handles the WithdrawPensionFull RPC
func (s *Server) WithdrawPensionFull(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaultID, err := requiredUUID(req, "vault_id")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.WithdrawPensionFull(ctx, ownerID, vaultID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vault":        vaultFields(result.Vault),
		"withdrawn":    money(result.Withdrawn),
		"bonus":        money(result.Bonus),
		"payout":       money(result.Payout),
		"transactions": transactionList(result.Transactions),
	})
}

// ApplyParkingIncentive handles the ApplyParkingIncentive RPC
func (s *Server) ApplyParkingIncentive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	vaultID, err := requiredUUID(req, "vault_id")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.ApplyParkingIncentive(ctx, ownerID, vaultID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"vault":       vaultFields(result.Vault),
		"incentive":   money(result.Incentive),
		"transaction": transactionFields(result.Transaction),
		"message":     result.Message,
	})
}

// TransferToUser handles the TransferToUser RPC
func (s *Server) TransferToUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	sourceVaultID, err := requiredUUID(req, "source_vault_id")
	if err != nil {
		return nil, mapError(err)
	}
	publicID, err := stringField(req, "recipient_public_id")
	if err != nil {
		return nil, mapError(err)
	}
	email, err := stringField(req, "recipient_email")
	if err != nil {
		return nil, mapError(err)
	}
	amount, err := amountField(req, "amount")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.TransferService.TransferToUser(ctx, transfer.TransferToUserInput{
		SenderID:          ownerID,
		SourceVaultID:     sourceVaultID,
		RecipientPublicID: publicID,
		RecipientEmail:    email,
		Amount:            amount,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"source_vault":   vaultFields(result.SourceVault),
		"recipient_name": result.RecipientName,
		"amount":         money(result.Amount),
		"transaction":    transactionFields(result.Transaction),
	})
}

// TransferBetweenOwnVaults handles the TransferBetweenOwnVaults RPC
func (s *Server) TransferBetweenOwnVaults(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	sourceVaultID, err := requiredUUID(req, "source_vault_id")
	if err != nil {
		return nil, mapError(err)
	}
	rawType, err := stringField(req, "dest_vault_type")
	if err != nil {
		return nil, mapError(err)
	}
	destType, err := domain.ParseVaultType(rawType)
	if err != nil {
		return nil, mapError(err)
	}
	amount, err := amountField(req, "amount")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.TransferService.TransferBetweenOwnVaults(ctx, transfer.OwnVaultTransferInput{
		OwnerID:       ownerID,
		SourceVaultID: sourceVaultID,
		DestVaultType: destType,
		Amount:        amount,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"source_vault": vaultFields(result.SourceVault),
		"dest_vault":   vaultFields(result.DestVault),
		"amount":       money(result.Amount),
		"lock_started": result.LockStarted,
		"transactions": transactionList(result.Transactions),
	})
}

// AllocateToGoal handles the AllocateToGoal RPC
func (s *Server) AllocateToGoal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	goalID, err := requiredUUID(req, "goal_id")
	if err != nil {
		return nil, mapError(err)
	}
	amount, err := amountField(req, "amount")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.TransferService.AllocateToGoal(ctx, transfer.AllocateInput{
		OwnerID: ownerID,
		GoalID:  goalID,
		Amount:  amount,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"goal": goalFields(&goal.GoalView{
			Goal:      result.Goal,
			Progress:  result.Goal.Progress(),
			Remaining: result.Goal.Remaining(),
		}),
		"vault":          vaultFields(result.Vault),
		"transaction":    transactionFields(result.Transaction),
		"goal_completed": result.GoalCompleted,
		"message":        result.Message,
	})
}

// CreateGoal handles the CreateGoal RPC
func (s *Server) CreateGoal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	name, err := stringField(req, "name")
	if err != nil {
		return nil, mapError(err)
	}
	target, err := amountField(req, "target_amount")
	if err != nil {
		return nil, mapError(err)
	}

	view, err := s.GoalService.CreateGoal(ctx, goal.CreateGoalInput{
		OwnerID:      ownerID,
		Name:         name,
		TargetAmount: target,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"goal": goalFields(view),
	})
}

// UpdateGoal handles the UpdateGoal RPC
func (s *Server) UpdateGoal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	goalID, err := requiredUUID(req, "goal_id")
	if err != nil {
		return nil, mapError(err)
	}
	name, err := stringField(req, "name")
	if err != nil {
		return nil, mapError(err)
	}
	target, err := amountField(req, "target_amount")
	if err != nil {
		return nil, mapError(err)
	}

	view, err := s.GoalService.UpdateGoal(ctx, goal.UpdateGoalInput{
		OwnerID:      ownerID,
		GoalID:       goalID,
		Name:         name,
		TargetAmount: target,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"goal": goalFields(view),
	})
}

// DeleteGoal handles the DeleteGoal RPC
func (s *Server) DeleteGoal(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	goalID, err := requiredUUID(req, "goal_id")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.GoalService.DeleteGoal(ctx, ownerID, goalID)
	if err != nil {
		return nil, mapError(err)
	}

	return respond(map[string]interface{}{
		"refunded":    money(result.Refunded),
		"vault":       vaultFields(result.Vault),
		"transaction": transactionFields(result.Transaction),
	})
}

// ListGoals handles the ListGoals RPC
func (s *Server) ListGoals(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := authenticatedOwner(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.GoalService.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, mapError(err)
	}

	goals := make([]interface{}, 0, len(views))
	for _, view := range views {
		goals = append(goals, goalFields(view))
	}

	return respond(map[string]interface{}{
		"goals": goals,
	})
}

// authenticatedOwner returns the authenticated owner or Unauthenticated
func authenticatedOwner(ctx context.Context) (uuid.UUID, error) {
	id, ok := OwnerIDFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing owner identity")
	}
	return id, nil
}

func respond(fields map[string]interface{}) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		logger.Error("failed to encode response", err, nil)
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var validationErr *domain.ValidationError
	var insufficientErr *domain.InsufficientFundsError
	var lockedErr *domain.LockedError
	var notFoundErr *domain.NotFoundError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, validationErr.Error())
	case errors.As(err, &insufficientErr):
		return status.Error(codes.FailedPrecondition, insufficientErr.Error())
	case errors.As(err, &lockedErr):
		return status.Error(codes.FailedPrecondition, lockedErr.Error())
	case errors.As(err, &notFoundErr):
		return status.Error(codes.NotFound, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		return status.Error(codes.Aborted, "concurrent modification, please retry")
	case errors.Is(err, domain.ErrVaultExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	// Default to Internal error for unknown errors; the cause stays in the log
	logger.Error("request failed", err, nil)
	return status.Error(codes.Internal, "internal error")
}
