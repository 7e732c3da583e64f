//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitlesson-settlement/internal/domain"
	"fitlesson-settlement/internal/domain/model"
	"fitlesson-settlement/internal/domain/ports/adapter"
	"fitlesson-settlement/internal/domain/ports/repository"
	"fitlesson-settlement/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- Mock LessonRepository ----

type MockLessonRepo struct {
	mu      sync.Mutex
	lessons map[string]*model.Lesson

	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error)
	UpdateStatusFunc func(ctx context.Context, tx repository.Tx, id string, status model.LessonStatus) error
}

var _ repository.LessonRepository = (*MockLessonRepo)(nil)

func NewMockLessonRepo() *MockLessonRepo {
	return &MockLessonRepo{lessons: make(map[string]*model.Lesson)}
}

func (m *MockLessonRepo) Save(ctx context.Context, tx repository.Tx, l *model.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.lessons[l.ID] = &cp
	return nil
}

func (m *MockLessonRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Lesson, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *MockLessonRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.LessonStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lessons[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Status = status
	return nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*model.Payment

	FindByLessonFunc         func(ctx context.Context, tx repository.Tx, lessonID string) (*model.Payment, error)
	ApplyProcessorUpdateFunc func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, netAmount int64, paidAt *time.Time) (bool, error)
	LockEligibleFunc         func(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.Payment, error)
	MarkPaidOutFunc          func(ctx context.Context, tx repository.Tx, payoutRequestID string) error

	Calls struct {
		ExcludeFromPayout    []string
		ReincludeInPayout    []string
		AssignPayoutRequest  int
		ReleasePayoutRequest []string
		MarkPaidOut          []string
	}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByLesson(ctx context.Context, tx repository.Tx, lessonID string) (*model.Payment, error) {
	if m.FindByLessonFunc != nil {
		return m.FindByLessonFunc(ctx, tx, lessonID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.LessonID == lessonID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) ApplyProcessorUpdate(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, netAmount int64, paidAt *time.Time) (bool, error) {
	if m.ApplyProcessorUpdateFunc != nil {
		return m.ApplyProcessorUpdateFunc(ctx, tx, id, status, netAmount, paidAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status.Settled() {
		return false, nil
	}
	p.Status = status
	p.NetAmount = netAmount
	p.PaidAt = paidAt
	return true, nil
}

func (m *MockPaymentRepo) ExcludeFromPayout(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.PayoutExcluded = true
	m.Calls.ExcludeFromPayout = append(m.Calls.ExcludeFromPayout, id)
	return nil
}

func (m *MockPaymentRepo) ReincludeInPayout(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.PayoutExcluded = false
	m.Calls.ReincludeInPayout = append(m.Calls.ReincludeInPayout, id)
	return nil
}

func (m *MockPaymentRepo) LockEligibleForPayout(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.Payment, error) {
	if m.LockEligibleFunc != nil {
		return m.LockEligibleFunc(ctx, tx, trainerID)
	}
	return m.eligible(trainerID), nil
}

func (m *MockPaymentRepo) ListEligibleForPayout(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.Payment, error) {
	return m.eligible(trainerID), nil
}

func (m *MockPaymentRepo) eligible(trainerID string) []*model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if p.TrainerID == trainerID && p.Status.Settled() && p.Status != model.PaymentStatusPaidOut &&
			!p.PayoutExcluded && p.PayoutRequestID == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MockPaymentRepo) AssignPayoutRequest(ctx context.Context, tx repository.Tx, paymentIDs []string, payoutRequestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.AssignPayoutRequest++
	for _, id := range paymentIDs {
		p, ok := m.payments[id]
		if !ok {
			return domain.ErrNotFound
		}
		rid := payoutRequestID
		p.PayoutRequestID = &rid
	}
	return nil
}

func (m *MockPaymentRepo) ReleasePayoutRequest(ctx context.Context, tx repository.Tx, payoutRequestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.ReleasePayoutRequest = append(m.Calls.ReleasePayoutRequest, payoutRequestID)
	for _, p := range m.payments {
		if p.PayoutRequestID != nil && *p.PayoutRequestID == payoutRequestID {
			p.PayoutRequestID = nil
		}
	}
	return nil
}

func (m *MockPaymentRepo) MarkPaidOut(ctx context.Context, tx repository.Tx, payoutRequestID string) error {
	if m.MarkPaidOutFunc != nil {
		return m.MarkPaidOutFunc(ctx, tx, payoutRequestID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.MarkPaidOut = append(m.Calls.MarkPaidOut, payoutRequestID)
	for _, p := range m.payments {
		if p.PayoutRequestID != nil && *p.PayoutRequestID == payoutRequestID {
			p.Status = model.PaymentStatusPaidOut
		}
	}
	return nil
}

func (m *MockPaymentRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.payments {
		if inWindow(p.CreatedAt, start, end) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func inWindow(at time.Time, start, end *time.Time) bool {
	if start != nil && at.Before(*start) {
		return false
	}
	if end != nil && !at.Before(*end) {
		return false
	}
	return true
}

// ---- Mock RefundRepository ----

type MockRefundRepo struct {
	mu      sync.Mutex
	refunds map[string]*model.Refund

	UpdateStatusIfFunc func(ctx context.Context, tx repository.Tx, id string, from, to model.RefundStatus, refundAmount int64) (bool, error)
}

var _ repository.RefundRepository = (*MockRefundRepo)(nil)

func NewMockRefundRepo() *MockRefundRepo {
	return &MockRefundRepo{refunds: make(map[string]*model.Refund)}
}

func (m *MockRefundRepo) Save(ctx context.Context, tx repository.Tx, r *model.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.refunds[r.ID] = &cp
	return nil
}

func (m *MockRefundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refunds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRefundRepo) FindActiveByPayment(ctx context.Context, tx repository.Tx, paymentID string) (*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.refunds {
		if r.PaymentID == paymentID && r.Status != model.RefundStatusRejected {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRefundRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.RefundStatus, refundAmount int64) (bool, error) {
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, from, to, refundAmount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refunds[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.RefundAmount = refundAmount
	return true, nil
}

func (m *MockRefundRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Refund
	for _, r := range m.refunds {
		if inWindow(r.CreatedAt, start, end) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRefundRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.refunds {
		if r.Status == model.RefundStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *MockRefundRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Refund
	for _, r := range m.refunds {
		if r.Status == model.RefundStatusPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock PayoutRequestRepository ----

type MockPayoutRepo struct {
	mu      sync.Mutex
	payouts map[string]*model.PayoutRequest

	UpdateStatusIfFunc func(ctx context.Context, tx repository.Tx, id string, from, to model.PayoutStatus, at time.Time) (bool, error)

	Calls struct {
		UpdateStatusIf int
	}
}

var _ repository.PayoutRequestRepository = (*MockPayoutRepo)(nil)

func NewMockPayoutRepo() *MockPayoutRepo {
	return &MockPayoutRepo{payouts: make(map[string]*model.PayoutRequest)}
}

func (m *MockPayoutRepo) Save(ctx context.Context, tx repository.Tx, p *model.PayoutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payouts[p.ID] = &cp
	return nil
}

func (m *MockPayoutRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPayoutRepo) FindActiveByTrainer(ctx context.Context, tx repository.Tx, trainerID string) (*model.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payouts {
		if p.TrainerID == trainerID && p.Status.Active() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPayoutRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.PayoutStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	m.Calls.UpdateStatusIf++
	m.mu.Unlock()
	if m.UpdateStatusIfFunc != nil {
		return m.UpdateStatusIfFunc(ctx, tx, id, from, to, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if p.Status != from {
		return false, nil
	}
	p.Status = to
	at2 := at
	if to == model.PayoutStatusPaid {
		p.SettledAt = &at2
	} else {
		p.ProcessedAt = &at2
	}
	return true, nil
}

func (m *MockPayoutRepo) ListByWindow(ctx context.Context, tx repository.Tx, start, end *time.Time) ([]*model.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PayoutRequest
	for _, p := range m.payouts {
		if inWindow(p.CreatedAt, start, end) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPayoutRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.payouts {
		if p.Status == model.PayoutStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *MockPayoutRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PayoutRequest
	for _, p := range m.payouts {
		if p.Status == model.PayoutStatusPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPayoutRepo) ListApprovedBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) ([]*model.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PayoutRequest
	for _, p := range m.payouts {
		if p.Status == model.PayoutStatusApproved && p.ProcessedAt != nil && p.ProcessedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock VerificationRepository ----

type MockVerificationRepo struct {
	mu     sync.Mutex
	verifs map[string]*model.IdentityVerification

	HistoryByTrainerFunc func(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.IdentityVerification, error)
}

var _ repository.VerificationRepository = (*MockVerificationRepo)(nil)

func NewMockVerificationRepo() *MockVerificationRepo {
	return &MockVerificationRepo{verifs: make(map[string]*model.IdentityVerification)}
}

func (m *MockVerificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.IdentityVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.verifs[v.ID] = &cp
	return nil
}

func (m *MockVerificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.IdentityVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verifs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MockVerificationRepo) HistoryByTrainer(ctx context.Context, tx repository.Tx, trainerID string) ([]*model.IdentityVerification, error) {
	if m.HistoryByTrainerFunc != nil {
		return m.HistoryByTrainerFunc(ctx, tx, trainerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.IdentityVerification
	for _, v := range m.verifs {
		if v.TrainerID == trainerID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockVerificationRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from, to model.VerificationStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verifs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if v.Status != from {
		return false, nil
	}
	v.Status = to
	return true, nil
}

func (m *MockVerificationRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.verifs {
		if v.Status == model.VerificationStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *MockVerificationRepo) ListPending(ctx context.Context, tx repository.Tx) ([]*model.IdentityVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.IdentityVerification
	for _, v := range m.verifs {
		if v.Status == model.VerificationStatusPending {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================
// Transaction manager & locks
// =============================

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

// WithTx runs the function immediately with NoTX unless a test installs a
// custom WithTxFunc to exercise transactional behavior.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ usecase.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[string]string), ErrOn: make(map[string]error)}
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ErrOn[key]; ok {
		return "", err
	}
	if _, taken := m.held[key]; taken {
		return "", domain.ErrDuplicateActiveRequest
	}
	token := key + "-token"
	m.held[key] = token
	return token, nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] == token {
		delete(m.held, key)
	}
	return nil
}

// ---- In-memory EventDeduper ----

type MockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

var _ usecase.EventDeduper = (*MockDeduper)(nil)

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{seen: make(map[string]bool)}
}

func (m *MockDeduper) Seen(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.seen[key], nil
}

func (m *MockDeduper) MarkSeen(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.seen[key] = true
	return nil
}

// =============================
// Adapters
// =============================

// ---- Mock TransferExecutor ----

type MockTransfer struct {
	mu sync.Mutex

	ExecuteFunc func(ctx context.Context, trainerID string, netPayout int64, payoutRequestID string) error

	Calls []struct {
		TrainerID string
		NetPayout int64
		RequestID string
	}
}

var _ adapter.TransferExecutor = (*MockTransfer)(nil)

func (m *MockTransfer) Name() string { return "mock" }

func (m *MockTransfer) Execute(ctx context.Context, trainerID string, netPayout int64, payoutRequestID string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, struct {
		TrainerID string
		NetPayout int64
		RequestID string
	}{trainerID, netPayout, payoutRequestID})
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, trainerID, netPayout, payoutRequestID)
	}
	return nil
}

// ---- Mock NotificationDispatcher ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []adapter.Notification
}

var _ adapter.NotificationDispatcher = (*MockNotifier)(nil)

func (m *MockNotifier) Dispatch(ctx context.Context, n adapter.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
}
