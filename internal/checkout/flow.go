// internal/checkout/flow.go
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateMethod      State = "method"
	StateCardDetails State = "card-details"
	StateQR          State = "qr"
	StateComingSoon  State = "coming-soon"
	StateProcessing  State = "processing"
	StateSuccess     State = "success"
	StateError       State = "error"
)

const (
	DefaultSuccessDelay = 2 * time.Second

	ProviderCard   = "card"
	ProviderCredit = "credit"

	statusCompleted = "completed"
)

// Scheduler runs fn after delay. Tests pass Immediate to run completion inline.
type Scheduler func(delay time.Duration, fn func())

func AfterFunc(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

func Immediate(_ time.Duration, fn func()) {
	fn()
}

type Options struct {
	Gateway          Gateway
	Logger           logrus.FieldLogger
	Bank             BankAccount
	QR               QRGenerator
	SuccessDelay     time.Duration
	MaxDocumentBytes int64
	Now              func() time.Time
	Schedule         Scheduler
}

// Flow is one buyer's checkout of one product. All methods are safe for
// concurrent use; a second submission while one is in flight is rejected.
type Flow struct {
	mu sync.Mutex

	id      uuid.UUID
	session Session
	seller  Party
	product Product

	gateway  Gateway
	logger   logrus.FieldLogger
	resolver *Resolver
	checker  *Checker
	gate     *DocumentGate
	qr       QRGenerator
	bank     BankAccount
	delay    time.Duration
	now      func() time.Time
	schedule Scheduler

	state         State
	quantity      int
	quote         PricingQuote
	eligibility   CreditEligibility
	paymentType   PaymentType
	paymentMethod PaymentMethod
	selectedTerm  int
	customTerm    string
	document      *StagedDocument
	transaction   *TransactionRecord
	errMessage    string
	fieldErrors   map[string]string
	busy          bool
	closed        bool
	completed     bool
	listeners     []func(Completion)
	updatedAt     time.Time
}

func NewFlow(session Session, seller Party, product Product, opts Options) (*Flow, error) {
	if opts.Gateway == nil {
		return nil, errors.New("checkout gateway is required")
	}
	if session.UserID == uuid.Nil {
		return nil, errors.New("checkout session has no user")
	}
	if session.UserID == product.SellerID {
		return nil, newValidationError(CodeSelfPurchase, ErrMsgSelfPurchase)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	schedule := opts.Schedule
	if schedule == nil {
		schedule = AfterFunc
	}
	delay := opts.SuccessDelay
	if delay <= 0 {
		delay = DefaultSuccessDelay
	}
	qr := opts.QR
	if qr.Scheme == "" || qr.Currency == "" {
		qr = NewQRGenerator(qr.Scheme, qr.Currency)
	}
	if qr.Now == nil {
		qr.Now = now
	}

	id := uuid.New()
	flowLogger := logger.WithFields(logrus.Fields{
		"flow_id":    id,
		"buyer_id":   session.UserID,
		"seller_id":  product.SellerID,
		"product_id": product.ID,
	})

	return &Flow{
		id:            id,
		session:       session,
		seller:        seller,
		product:       product,
		gateway:       opts.Gateway,
		logger:        flowLogger,
		resolver:      NewResolver(opts.Gateway, flowLogger),
		checker:       NewChecker(opts.Gateway, flowLogger),
		gate:          NewDocumentGate(opts.Gateway, opts.MaxDocumentBytes),
		qr:            qr,
		bank:          opts.Bank,
		delay:         delay,
		now:           now,
		schedule:      schedule,
		state:         StateMethod,
		quantity:      1,
		quote:         baseQuote(product.UnitPrice),
		eligibility:   CreditEligibility{Available: true, InterestRate: decimal.Zero},
		paymentType:   PaymentTypeImmediate,
		paymentMethod: PaymentMethodBankTransfer,
		selectedTerm:  TermMenu[0],
		updatedAt:     now(),
	}, nil
}

func (f *Flow) ID() uuid.UUID {
	return f.id
}

func (f *Flow) Owner() uuid.UUID {
	return f.session.UserID
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Flow) UpdatedAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updatedAt
}

// OnComplete registers a listener for the completion event.
func (f *Flow) OnComplete(fn func(Completion)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Open loads pricing and credit eligibility for the current quantity.
func (f *Flow) Open(ctx context.Context) error {
	f.mu.Lock()
	quantity := f.quantity
	f.mu.Unlock()
	return f.SetQuantity(ctx, quantity)
}

// SetQuantity re-prices the purchase. Any pending transfer transaction is
// dropped from the flow since its amount no longer matches.
func (f *Flow) SetQuantity(ctx context.Context, quantity int) error {
	if quantity < 1 {
		return &ValidationError{
			Code:    CodeInvalidQuantity,
			Message: ErrMsgInvalidQuantity,
			Fields:  map[string]string{"quantity": ErrMsgInvalidQuantity},
		}
	}

	f.mu.Lock()
	if err := f.guard(StateMethod, "change quantity"); err != nil {
		f.mu.Unlock()
		return err
	}
	f.busy = true
	f.mu.Unlock()

	amount := f.product.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	quote := f.resolver.Resolve(ctx, f.product.SellerID, f.product.ID, amount)
	eligibility := f.checker.Check(ctx, f.session.UserID, f.product.SellerID, quote.FinalAmount)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if f.quantity != quantity {
		f.transaction = nil
	}
	f.quantity = quantity
	f.quote = quote
	f.eligibility = eligibility
	delete(f.fieldErrors, "quantity")
	f.touch()
	return nil
}

func (f *Flow) SelectPayment(paymentType PaymentType, method PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateMethod, "change payment method"); err != nil {
		return err
	}

	switch paymentType {
	case PaymentTypeCredit:
		method = PaymentMethodCredit
	case PaymentTypeImmediate:
		switch method {
		case PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodCreditCard:
		default:
			return newValidationError(CodeInvalidMethod, ErrMsgMethodRequired)
		}
	default:
		return newValidationError(CodeInvalidMethod, ErrMsgMethodRequired)
	}

	f.paymentType = paymentType
	f.paymentMethod = method
	f.clearErrors()
	f.touch()
	return nil
}

// SelectTerm picks a menu term or TermCustom when the seller leaves it open.
func (f *Flow) SelectTerm(days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateMethod, "change credit term"); err != nil {
		return err
	}
	if f.termFixed() {
		return newValidationError(CodeInvalidTerm, ErrMsgTermFixed)
	}
	if days != TermCustom && !IsMenuTerm(days) {
		return newValidationError(CodeInvalidTerm, ErrMsgTermNotOffered)
	}

	f.selectedTerm = days
	delete(f.fieldErrors, "custom_term")
	f.touch()
	return nil
}

// SetCustomTerm stores the typed day count and selects the custom term. The
// text is kept even when invalid so the buyer can correct it.
func (f *Flow) SetCustomTerm(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateMethod, "change credit term"); err != nil {
		return err
	}
	if f.termFixed() {
		return newValidationError(CodeInvalidTerm, ErrMsgTermFixed)
	}

	f.selectedTerm = TermCustom
	f.customTerm = text
	f.touch()

	if _, err := ValidateCustomTerm(text); err != nil {
		f.setFieldErrors(err)
		return err
	}
	delete(f.fieldErrors, "custom_term")
	return nil
}

func (f *Flow) AttachDocument(file DocumentFile) (*StagedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateMethod, "attach a document"); err != nil {
		return nil, err
	}

	staged, err := f.gate.Attach(file)
	if err != nil {
		f.setFieldErrors(err)
		return nil, err
	}

	f.document = staged
	delete(f.fieldErrors, "document")
	f.touch()
	return staged, nil
}

func (f *Flow) RemoveDocument() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateMethod, "remove the document"); err != nil {
		return err
	}
	f.document = nil
	f.touch()
	return nil
}

// Proceed leaves the method state according to the selected payment.
func (f *Flow) Proceed(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guard(StateMethod, "proceed"); err != nil {
		f.mu.Unlock()
		return err
	}
	f.clearErrors()

	var run func(context.Context) error

	switch {
	case f.paymentType == PaymentTypeCredit:
		req, doc, err := f.prepareCredit()
		if err != nil {
			f.reject(err)
			f.mu.Unlock()
			return err
		}
		f.enterProcessing()
		run = func(ctx context.Context) error { return f.runCredit(ctx, req, doc) }

	case f.paymentMethod == PaymentMethodEWallet:
		f.state = StateComingSoon

	case f.paymentMethod == PaymentMethodCreditCard:
		f.state = StateCardDetails

	case f.paymentMethod == PaymentMethodBankTransfer:
		if f.reusableTransfer() {
			f.state = StateQR
			break
		}
		req := f.transactionRequest(nil)
		f.enterProcessing()
		run = func(ctx context.Context) error { return f.runBankTransfer(ctx, req) }

	default:
		err := newValidationError(CodeInvalidMethod, ErrMsgMethodRequired)
		f.reject(err)
		f.mu.Unlock()
		return err
	}

	f.touch()
	f.mu.Unlock()

	if run == nil {
		return nil
	}
	return run(context.WithoutCancel(ctx))
}

// SubmitCard validates the card, then creates and pays the transaction.
func (f *Flow) SubmitCard(ctx context.Context, card CardDetails) error {
	f.mu.Lock()
	if err := f.guard(StateCardDetails, "submit card details"); err != nil {
		f.mu.Unlock()
		return err
	}

	validation := ValidateCard(card, f.now())
	if !validation.Valid {
		err := &ValidationError{Code: CodeInvalidCard, Message: ErrMsgCardInvalid, Fields: validation.FieldErrors}
		f.reject(err)
		f.mu.Unlock()
		return err
	}

	f.clearErrors()
	req := f.transactionRequest(nil)
	f.enterProcessing()
	f.mu.Unlock()

	return f.runCard(context.WithoutCancel(ctx), req, card)
}

// ConfirmTransfer records the buyer's "I have transferred" confirmation.
func (f *Flow) ConfirmTransfer(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guard(StateQR, "confirm the transfer"); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.transaction == nil {
		f.mu.Unlock()
		return &TransitionError{State: StateQR, Action: "confirm a transfer without a transaction"}
	}

	record := *f.transaction
	f.enterProcessing()
	f.mu.Unlock()

	err := f.gateway.ProcessPayment(context.WithoutCancel(ctx), PaymentRequest{
		TransactionID: record.ID,
		BuyerID:       f.session.UserID,
		Method:        PaymentMethodBankTransfer,
		Provider:      f.bank.BankID,
		Reference:     record.Code,
	})
	return f.finish(&record, "process_payment", err)
}

// Back returns to method selection from card capture, QR or coming-soon.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrSubmissionInFlight
	}

	switch f.state {
	case StateCardDetails, StateQR, StateComingSoon:
		f.state = StateMethod
		f.clearErrors()
		f.touch()
		return nil
	}
	return &TransitionError{State: f.state, Action: "go back"}
}

// Retry returns from the error state to method selection.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guard(StateError, "retry"); err != nil {
		return err
	}

	f.state = StateMethod
	f.transaction = nil
	f.clearErrors()
	f.touch()
	return nil
}

// Close stops the flow from reacting and drops the staged document and the
// transaction mirror. In-flight store calls are not aborted.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.document = nil
	f.transaction = nil
	f.touch()
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	view := View{
		ID:            f.id,
		State:         f.state,
		Seller:        f.seller,
		Product:       f.product,
		Quantity:      f.quantity,
		PaymentType:   f.paymentType,
		PaymentMethod: f.paymentMethod,
		Quote:         f.quote,
		Credit:        f.creditView(),
		Error:         f.errMessage,
		Submitting:    f.busy,
		Closed:        f.closed,
		UpdatedAt:     f.updatedAt,
	}

	if len(f.fieldErrors) > 0 {
		view.FieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			view.FieldErrors[k] = v
		}
	}
	if f.document != nil {
		view.Document = &DocumentView{
			Name:     f.document.File.Name,
			MimeType: f.document.MimeType,
			Size:     f.document.Size,
			Preview:  f.document.Preview,
		}
	}
	if f.transaction != nil {
		record := *f.transaction
		view.Transaction = &record
	}
	if f.state == StateQR && f.transaction != nil {
		bank := f.bank
		view.Bank = &bank
		view.QRPayload = f.qr.Generate(f.bank, f.quote.FinalAmount, f.transaction.ID.String())
	}

	return view
}

func (f *Flow) runBankTransfer(ctx context.Context, req CreateTransactionRequest) error {
	record, err := f.gateway.CreateTransaction(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if err != nil {
		return f.failLocked("create_transaction", err)
	}

	if !f.closed {
		f.transaction = record
	}
	f.state = StateQR
	f.touch()
	f.logger.WithField("transaction_id", record.ID).Info("Bank transfer awaiting confirmation")
	return nil
}

func (f *Flow) runCard(ctx context.Context, req CreateTransactionRequest, card CardDetails) error {
	record, err := f.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return f.finish(nil, "create_transaction", err)
	}
	f.setTransaction(record)

	err = f.gateway.ProcessPayment(ctx, PaymentRequest{
		TransactionID: record.ID,
		BuyerID:       f.session.UserID,
		Method:        PaymentMethodCreditCard,
		Provider:      ProviderCard,
		Reference:     card.Masked(),
		Card:          &card,
	})
	return f.finish(record, "process_payment", err)
}

func (f *Flow) runCredit(ctx context.Context, req CreateTransactionRequest, doc *StagedDocument) error {
	record, err := f.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return f.finish(nil, "create_transaction", err)
	}
	f.setTransaction(record)

	// A failed upload leaves the transaction pending.
	if _, err := f.gate.Submit(ctx, f.session.UserID, f.product.SellerID, record.ID, doc); err != nil {
		return f.finish(record, "submit_document", err)
	}

	err = f.gateway.ProcessPayment(ctx, PaymentRequest{
		TransactionID: record.ID,
		BuyerID:       f.session.UserID,
		Method:        PaymentMethodCredit,
		Provider:      ProviderCredit,
		Reference:     record.Code,
	})
	return f.finish(record, "process_payment", err)
}

// finish settles a processing step into success or error and schedules the
// completion event on success.
func (f *Flow) finish(record *TransactionRecord, step string, err error) error {
	f.mu.Lock()
	f.busy = false

	if err != nil {
		perr := f.failLocked(step, err)
		f.mu.Unlock()
		return perr
	}

	completed := *record
	completed.Status = statusCompleted
	if !f.closed {
		f.transaction = &completed
	}
	f.state = StateSuccess
	f.touch()

	completion := Completion{
		FlowID:          f.id,
		TransactionID:   completed.ID,
		TransactionCode: completed.Code,
		PaymentType:     f.paymentType,
		PaymentMethod:   f.paymentMethod,
		FinalAmount:     f.quote.FinalAmount,
		TotalPayable:    f.totalPayable(),
		CompletedAt:     f.now(),
	}
	delay, schedule := f.delay, f.schedule
	f.mu.Unlock()

	f.logger.WithFields(logrus.Fields{
		"transaction_id": completed.ID,
		"payment_type":   completion.PaymentType,
		"payment_method": completion.PaymentMethod,
	}).Info("Checkout completed")

	schedule(delay, func() { f.complete(completion) })
	return nil
}

func (f *Flow) complete(completion Completion) {
	f.mu.Lock()
	if f.closed || f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.closed = true
	listeners := make([]func(Completion), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, listener := range listeners {
		listener(completion)
	}
}

func (f *Flow) failLocked(step string, err error) error {
	f.state = StateError
	f.errMessage = err.Error()
	f.touch()

	f.logger.WithFields(logrus.Fields{
		"step":  step,
		"error": err,
	}).Error("Checkout step failed")

	return &ProcessingError{Step: step, Err: err}
}

func (f *Flow) setTransaction(record *TransactionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.transaction = record
}

func (f *Flow) prepareCredit() (CreateTransactionRequest, *StagedDocument, error) {
	if f.document == nil {
		return CreateTransactionRequest{}, nil, &ValidationError{
			Code:    CodeDocumentRequired,
			Message: ErrMsgDocumentRequired,
			Fields:  map[string]string{"document": ErrMsgDocumentRequired},
		}
	}
	if !f.eligibility.Available {
		return CreateTransactionRequest{}, nil, newValidationError(CodeCreditUnavailable, ErrMsgCreditUnavailable)
	}

	term, err := f.effectiveTerm()
	if err != nil {
		return CreateTransactionRequest{}, nil, err
	}

	f.paymentMethod = PaymentMethodCredit
	return f.transactionRequest(&term), f.document, nil
}

func (f *Flow) transactionRequest(termDays *int) CreateTransactionRequest {
	req := CreateTransactionRequest{
		BuyerID:        f.session.UserID,
		SellerID:       f.product.SellerID,
		ProductID:      f.product.ID,
		Quantity:       f.quantity,
		Amount:         f.quote.BaseAmount,
		DiscountAmount: f.quote.DiscountAmount,
		FinalAmount:    f.quote.FinalAmount,
		Type:           f.paymentType,
		PaymentMethod:  f.paymentMethod,
		InterestRate:   decimal.Zero,
	}
	if termDays != nil {
		days := *termDays
		req.CreditTermDays = &days
		req.InterestRate = f.effectiveRate()
	}
	return req
}

func (f *Flow) reusableTransfer() bool {
	return f.transaction != nil &&
		f.transaction.PaymentMethod == PaymentMethodBankTransfer &&
		f.transaction.FinalAmount.Equal(f.quote.FinalAmount)
}

func (f *Flow) termFixed() bool {
	return f.quote.TermDays != nil || f.eligibility.TermDays > 0
}

// effectiveTerm prefers a pricing override, then the seller's default, then
// the buyer's choice.
func (f *Flow) effectiveTerm() (int, error) {
	if f.quote.TermDays != nil {
		return *f.quote.TermDays, nil
	}
	if f.eligibility.TermDays > 0 {
		return f.eligibility.TermDays, nil
	}
	if f.selectedTerm == TermCustom {
		return ValidateCustomTerm(f.customTerm)
	}
	return f.selectedTerm, nil
}

func (f *Flow) effectiveRate() decimal.Decimal {
	if f.quote.InterestRate != nil {
		return *f.quote.InterestRate
	}
	return f.eligibility.InterestRate
}

func (f *Flow) totalPayable() decimal.Decimal {
	if f.paymentType != PaymentTypeCredit {
		return f.quote.FinalAmount
	}
	term, err := f.effectiveTerm()
	if err != nil {
		return f.quote.FinalAmount
	}
	return TotalPayable(f.quote.FinalAmount, f.effectiveRate(), term)
}

func (f *Flow) creditView() CreditView {
	view := CreditView{
		Available:    f.eligibility.Available,
		TermFixed:    f.termFixed(),
		SelectedTerm: f.selectedTerm,
		CustomTerm:   f.customTerm,
		InterestRate: f.effectiveRate(),
		TotalPayable: f.quote.FinalAmount,
		Ceiling:      f.eligibility.Ceiling,
	}
	if !view.TermFixed {
		view.TermOptions = append([]int(nil), TermMenu...)
	}

	term, err := f.effectiveTerm()
	if err == nil {
		view.TermDays = term
		view.InterestAmount = ComputeInterest(f.quote.FinalAmount, view.InterestRate, term)
		view.TotalPayable = f.quote.FinalAmount.Add(view.InterestAmount)
	}
	return view
}

func (f *Flow) guard(want State, action string) error {
	if f.closed {
		return ErrFlowClosed
	}
	if f.busy {
		return ErrSubmissionInFlight
	}
	if f.state != want {
		return &TransitionError{State: f.state, Action: action}
	}
	return nil
}

func (f *Flow) enterProcessing() {
	f.busy = true
	f.state = StateProcessing
	f.touch()
}

func (f *Flow) reject(err error) {
	f.errMessage = err.Error()
	f.setFieldErrors(err)
	f.touch()
}

func (f *Flow) setFieldErrors(err error) {
	verr, ok := AsValidationError(err)
	if !ok || len(verr.Fields) == 0 {
		return
	}
	if f.fieldErrors == nil {
		f.fieldErrors = make(map[string]string)
	}
	for k, v := range verr.Fields {
		f.fieldErrors[k] = v
	}
}

func (f *Flow) clearErrors() {
	f.errMessage = ""
	f.fieldErrors = nil
}

func (f *Flow) touch() {
	f.updatedAt = f.now()
}
