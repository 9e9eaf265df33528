// internal/checkout/flow_test.go
package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FlowTestSuite struct {
	suite.Suite
	gateway *fakeGateway
	session Session
	seller  Party
	product Product
	clock   time.Time
}

func (suite *FlowTestSuite) SetupTest() {
	suite.gateway = newFakeGateway()
	suite.session = Session{UserID: uuid.New(), Username: "buyer", Role: "farmer", DisplayName: "Buyer"}
	suite.seller = Party{ID: uuid.New(), DisplayName: "Green Valley Co-op"}
	suite.product = Product{
		ID:        uuid.New(),
		Name:      "Organic fertiliser",
		UnitPrice: decimal.NewFromInt(450000),
		SellerID:  suite.seller.ID,
	}
	suite.clock = time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
}

func (suite *FlowTestSuite) newFlow() *Flow {
	logger, _ := test.NewNullLogger()
	flow, err := NewFlow(suite.session, suite.seller, suite.product, Options{
		Gateway:  suite.gateway,
		Logger:   logger,
		Bank:     BankAccount{BankID: "VCB", AccountNumber: "0011001234567", AccountName: "GREEN VALLEY"},
		Now:      func() time.Time { return suite.clock },
		Schedule: Immediate,
	})
	suite.Require().NoError(err)
	suite.Require().NoError(flow.Open(context.Background()))
	return flow
}

func (suite *FlowTestSuite) attachCertificate(flow *Flow) {
	_, err := flow.AttachDocument(DocumentFile{Name: "cert.png", ContentType: "image/png", Data: pngBytes})
	suite.Require().NoError(err)
}

// Immediate bank transfer: pending transaction, QR, then confirmation pays once.
func (suite *FlowTestSuite) TestBankTransferScenario() {
	flow := suite.newFlow()
	var completions []Completion
	flow.OnComplete(func(c Completion) { completions = append(completions, c) })

	suite.Require().NoError(flow.SelectPayment(PaymentTypeImmediate, PaymentMethodBankTransfer))
	suite.Require().NoError(flow.Proceed(context.Background()))

	view := flow.View()
	suite.Equal(StateQR, view.State)
	suite.Require().Len(suite.gateway.created, 1)
	suite.Equal("450000", suite.gateway.created[0].FinalAmount.String())
	suite.Equal(PaymentMethodBankTransfer, suite.gateway.created[0].PaymentMethod)
	suite.Nil(suite.gateway.created[0].CreditTermDays)
	suite.Equal(0, suite.gateway.paymentCount())
	suite.Require().NotNil(view.Transaction)
	suite.Contains(view.QRPayload, "|450000|"+view.Transaction.ID.String()[:8]+"|VND")

	suite.Require().NoError(flow.ConfirmTransfer(context.Background()))

	suite.Equal(StateSuccess, flow.State())
	suite.Require().Len(suite.gateway.payments, 1)
	suite.Equal(view.Transaction.ID, suite.gateway.payments[0].TransactionID)
	suite.Equal(view.Transaction.Code, suite.gateway.payments[0].Reference)
	suite.Equal("VCB", suite.gateway.payments[0].Provider)
	suite.Require().Len(completions, 1)
	suite.True(completions[0].TotalPayable.Equal(decimal.NewFromInt(450000)))
	suite.True(flow.Closed())
}

// Credit: principal 1 000 000, 12%/year, 90 days.
func (suite *FlowTestSuite) TestCreditScenario() {
	suite.product.UnitPrice = decimal.NewFromInt(1000000)
	suite.gateway.availability = &CreditAvailability{Available: true, TermDays: 90, InterestRate: decimal.NewFromInt(12)}

	flow := suite.newFlow()
	var completion *Completion
	flow.OnComplete(func(c Completion) { completion = &c })

	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodBankTransfer))
	view := flow.View()
	suite.Equal(PaymentMethodCredit, view.PaymentMethod)
	suite.Equal(90, view.Credit.TermDays)
	suite.True(view.Credit.TermFixed)
	suite.Equal("29589.04", view.Credit.InterestAmount.StringFixed(2))
	suite.Equal("1029589.04", view.Credit.TotalPayable.StringFixed(2))

	suite.attachCertificate(flow)
	suite.Require().NoError(flow.Proceed(context.Background()))

	suite.Equal(StateSuccess, flow.State())
	suite.Require().Len(suite.gateway.created, 1)
	created := suite.gateway.created[0]
	suite.Equal(PaymentTypeCredit, created.Type)
	suite.Require().NotNil(created.CreditTermDays)
	suite.Equal(90, *created.CreditTermDays)
	suite.True(created.InterestRate.Equal(decimal.NewFromInt(12)))

	suite.Require().Len(suite.gateway.uploads, 1)
	suite.Require().Len(suite.gateway.records, 1)
	suite.Require().Len(suite.gateway.payments, 1)
	suite.Equal(PaymentMethodCredit, suite.gateway.payments[0].Method)
	suite.Equal(suite.gateway.payments[0].TransactionID, suite.gateway.records[0].TransactionID)

	suite.Require().NotNil(completion)
	suite.Equal("1029589.04", completion.TotalPayable.StringFixed(2))
}

// E-wallet never creates a transaction.
func (suite *FlowTestSuite) TestEWalletComingSoon() {
	suite.gateway.availability = &CreditAvailability{Available: true, TermDays: 30}
	flow := suite.newFlow()

	suite.Require().NoError(flow.SetQuantity(context.Background(), 7))
	suite.attachCertificate(flow)
	suite.Require().NoError(flow.SelectPayment(PaymentTypeImmediate, PaymentMethodEWallet))
	suite.Require().NoError(flow.Proceed(context.Background()))

	suite.Equal(StateComingSoon, flow.State())
	suite.Equal(0, suite.gateway.createdCount())

	suite.Require().NoError(flow.Back())
	suite.Equal(StateMethod, flow.State())
	suite.Equal(0, suite.gateway.createdCount())
}

// Credit without a certificate stays in method.
func (suite *FlowTestSuite) TestCreditRequiresDocument() {
	flow := suite.newFlow()

	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit))
	err := flow.Proceed(context.Background())

	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Equal(CodeDocumentRequired, verr.Code)
	view := flow.View()
	suite.Equal(StateMethod, view.State)
	suite.Equal(ErrMsgDocumentRequired, view.Error)
	suite.Contains(view.FieldErrors, "document")
	suite.Equal(0, suite.gateway.createdCount())
}

func (suite *FlowTestSuite) TestCustomTermGuard() {
	flow := suite.newFlow()
	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit))
	suite.attachCertificate(flow)

	suite.Error(flow.SetCustomTerm("0"))
	err := flow.Proceed(context.Background())
	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Equal(CodeInvalidCustomTerm, verr.Code)
	suite.Equal(StateMethod, flow.State())
	suite.Equal(0, suite.gateway.createdCount())

	suite.Require().NoError(flow.SetCustomTerm("45"))
	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Require().Len(suite.gateway.created, 1)
	suite.Equal(45, *suite.gateway.created[0].CreditTermDays)
}

func (suite *FlowTestSuite) TestTermSelection() {
	flow := suite.newFlow()

	suite.Error(flow.SelectTerm(60))
	suite.NoError(flow.SelectTerm(365))
	suite.Equal(365, flow.View().Credit.TermDays)
	suite.Equal(TermMenu, flow.View().Credit.TermOptions)
}

func (suite *FlowTestSuite) TestPricingOverrideWinsOverSellerDefault() {
	term := 180
	rate := decimal.NewFromInt(6)
	suite.gateway.pricing = &ApplicablePricing{DiscountPercent: decimal.NewFromInt(10), TermDays: &term, InterestRate: &rate}
	suite.gateway.availability = &CreditAvailability{Available: true, TermDays: 30, InterestRate: decimal.NewFromInt(12)}

	flow := suite.newFlow()
	view := flow.View()

	suite.Equal("405000", view.Quote.FinalAmount.String())
	suite.Equal(180, view.Credit.TermDays)
	suite.True(view.Credit.InterestRate.Equal(rate))
	suite.Error(flow.SelectTerm(30))
}

func (suite *FlowTestSuite) TestCreditUnavailable() {
	suite.gateway.availability = &CreditAvailability{Available: false}
	flow := suite.newFlow()
	suite.attachCertificate(flow)

	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit))
	err := flow.Proceed(context.Background())

	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Equal(CodeCreditUnavailable, verr.Code)
	suite.Equal(0, suite.gateway.createdCount())
}

// A missing certificate is reported even when the seller offers no credit.
func (suite *FlowTestSuite) TestMissingDocumentReportedBeforeCreditUnavailable() {
	suite.gateway.availability = &CreditAvailability{Available: false}
	flow := suite.newFlow()

	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit))
	err := flow.Proceed(context.Background())

	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Equal(CodeDocumentRequired, verr.Code)
	view := flow.View()
	suite.Equal(StateMethod, view.State)
	suite.Contains(view.FieldErrors, "document")
	suite.Equal(0, suite.gateway.createdCount())
}

func (suite *FlowTestSuite) TestCardFlow() {
	flow := suite.newFlow()
	suite.Require().NoError(flow.SelectPayment(PaymentTypeImmediate, PaymentMethodCreditCard))
	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Equal(StateCardDetails, flow.State())
	suite.Equal(0, suite.gateway.createdCount())

	err := flow.SubmitCard(context.Background(), CardDetails{Number: "1234", Expiry: "01/20", CVV: "1", HolderName: ""})
	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Len(verr.Fields, 4)
	suite.Equal(StateCardDetails, flow.State())
	suite.Equal(0, suite.gateway.createdCount())

	err = flow.SubmitCard(context.Background(), CardDetails{Number: "4242 4242 4242 4242", Expiry: "03/26", CVV: "123", HolderName: "Tran Thi B"})
	suite.Require().NoError(err)
	suite.Equal(StateSuccess, flow.State())
	suite.Require().Len(suite.gateway.payments, 1)
	suite.Equal(ProviderCard, suite.gateway.payments[0].Provider)
	suite.Equal("**** **** **** 4242", suite.gateway.payments[0].Reference)
	suite.Require().NotNil(suite.gateway.payments[0].Card)
}

func (suite *FlowTestSuite) TestCollaboratorFailureAndRetry() {
	suite.gateway.createErr = errors.New("insufficient stock")
	flow := suite.newFlow()

	err := flow.Proceed(context.Background())
	var perr *ProcessingError
	suite.Require().ErrorAs(err, &perr)
	suite.Equal("create_transaction", perr.Step)

	view := flow.View()
	suite.Equal(StateError, view.State)
	suite.Equal("insufficient stock", view.Error)
	suite.False(view.Submitting)
	suite.Equal(1, suite.gateway.createdCount())

	suite.gateway.createErr = nil
	suite.Require().NoError(flow.Retry())
	suite.Equal(StateMethod, flow.State())
	suite.Empty(flow.View().Error)

	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Equal(StateQR, flow.State())
	suite.Equal(2, suite.gateway.createdCount())
}

func (suite *FlowTestSuite) TestUploadFailureLeavesTransactionUnpaid() {
	suite.gateway.uploadErr = errors.New("upload failed")
	flow := suite.newFlow()
	suite.attachCertificate(flow)
	suite.Require().NoError(flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit))

	err := flow.Proceed(context.Background())
	var perr *ProcessingError
	suite.Require().ErrorAs(err, &perr)
	suite.Equal("submit_document", perr.Step)

	view := flow.View()
	suite.Equal(StateError, view.State)
	suite.Require().NotNil(view.Transaction)
	suite.Equal("pending", view.Transaction.Status)
	suite.Equal(1, suite.gateway.createdCount())
	suite.Equal(0, suite.gateway.paymentCount())
}

func (suite *FlowTestSuite) TestBackFromQRReusesTransaction() {
	flow := suite.newFlow()
	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Require().NoError(flow.Back())
	suite.Require().NoError(flow.Proceed(context.Background()))

	suite.Equal(StateQR, flow.State())
	suite.Equal(1, suite.gateway.createdCount())

	suite.Require().NoError(flow.Back())
	suite.Require().NoError(flow.SetQuantity(context.Background(), 2))
	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Equal(2, suite.gateway.createdCount())
	suite.Equal("900000", suite.gateway.created[1].FinalAmount.String())
}

func (suite *FlowTestSuite) TestInvalidTransitions() {
	flow := suite.newFlow()

	var terr *TransitionError
	suite.ErrorAs(flow.ConfirmTransfer(context.Background()), &terr)
	suite.ErrorAs(flow.Retry(), &terr)
	suite.ErrorAs(flow.Back(), &terr)
	suite.ErrorAs(flow.SubmitCard(context.Background(), CardDetails{}), &terr)

	_, ok := AsValidationError(flow.SetQuantity(context.Background(), 0))
	suite.True(ok)
	_, ok = AsValidationError(flow.SelectPayment(PaymentTypeImmediate, PaymentMethodCredit))
	suite.True(ok)
}

func (suite *FlowTestSuite) TestClosedFlowSuppressesCompletion() {
	var scheduled func()
	logger, _ := test.NewNullLogger()
	flow, err := NewFlow(suite.session, suite.seller, suite.product, Options{
		Gateway: suite.gateway,
		Logger:  logger,
		Schedule: func(delay time.Duration, fn func()) {
			suite.Equal(DefaultSuccessDelay, delay)
			scheduled = fn
		},
	})
	suite.Require().NoError(err)

	fired := false
	flow.OnComplete(func(Completion) { fired = true })

	suite.Require().NoError(flow.SelectPayment(PaymentTypeImmediate, PaymentMethodCreditCard))
	suite.Require().NoError(flow.Proceed(context.Background()))
	suite.Require().NoError(flow.SubmitCard(context.Background(), CardDetails{Number: "4242424242424242", Expiry: "12/99", CVV: "123", HolderName: "A"}))
	suite.Require().NotNil(scheduled)
	suite.NotNil(flow.View().Transaction)

	flow.Close()
	view := flow.View()
	suite.Nil(view.Transaction)
	suite.Nil(view.Document)
	scheduled()

	suite.False(fired)
	suite.ErrorIs(flow.Back(), ErrFlowClosed)
}

func (suite *FlowTestSuite) TestSelfPurchaseRejected() {
	suite.product.SellerID = suite.session.UserID

	_, err := NewFlow(suite.session, suite.seller, suite.product, Options{Gateway: suite.gateway})
	verr, ok := AsValidationError(err)
	suite.Require().True(ok)
	suite.Equal(CodeSelfPurchase, verr.Code)
}

func TestFlowSuite(t *testing.T) {
	suite.Run(t, new(FlowTestSuite))
}

func TestFlowRejectsConcurrentSubmission(t *testing.T) {
	gw := newFakeGateway()
	gw.createGate = make(chan struct{})
	seller := uuid.New()

	flow, err := NewFlow(Session{UserID: uuid.New()}, Party{ID: seller}, Product{ID: uuid.New(), UnitPrice: decimal.NewFromInt(100), SellerID: seller}, Options{
		Gateway:  gw,
		Schedule: Immediate,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, flow.Proceed(context.Background()))
	}()

	assert.Eventually(t, func() bool { return flow.View().Submitting }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateProcessing, flow.State())
	assert.ErrorIs(t, flow.Proceed(context.Background()), ErrSubmissionInFlight)
	assert.ErrorIs(t, flow.SelectPayment(PaymentTypeCredit, PaymentMethodCredit), ErrSubmissionInFlight)

	close(gw.createGate)
	wg.Wait()

	assert.Equal(t, StateQR, flow.State())
	assert.Equal(t, 1, gw.createdCount())
}
