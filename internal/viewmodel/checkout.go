package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"booksy/internal/api"
	"booksy/internal/location"
	"booksy/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rs/zerolog"
)

const (
	msgNameRequired      = "name required"
	msgAddressRequired   = "address required"
	msgRegionRequired    = "region required"
	msgRegionInvalid     = "region not valid"
	msgPhoneRequired     = "phone required"
	msgPhoneTooShort     = "phone invalid (min 9 digits)"
	msgPhoneInvalid      = "phone invalid"
	msgPaymentSuccessful = "Payment successful! Your order is on its way"
	msgPaymentFailed     = "failed to process payment"

	// orderItemTitle is sent as the title of every order line; the backend
	// resolves real titles from the book ID.
	orderItemTitle = "Book"

	minPhoneLength = 9
)

// DefaultPaymentDelay is the simulated payment processing time.
const DefaultPaymentDelay = 2 * time.Second

// ErrCheckoutInProgress is returned when Submit is called while a payment is processing.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// ChileRegions is the fixed list of shipping regions.
var ChileRegions = []model.Region{
	{Name: "Región Metropolitana", Code: "RM"},
	{Name: "Valparaíso", Code: "V"},
	{Name: "Biobío", Code: "VIII"},
	{Name: "La Araucanía", Code: "IX"},
	{Name: "Los Lagos", Code: "X"},
	{Name: "Antofagasta", Code: "II"},
	{Name: "Atacama", Code: "III"},
	{Name: "Coquimbo", Code: "IV"},
	{Name: "O'Higgins", Code: "VI"},
	{Name: "Maule", Code: "VII"},
	{Name: "Aysén", Code: "XI"},
	{Name: "Magallanes", Code: "XII"},
	{Name: "Arica y Parinacota", Code: "XV"},
	{Name: "Tarapacá", Code: "I"},
	{Name: "Ñuble", Code: "XVI"},
	{Name: "Los Ríos", Code: "XIV"},
}

// IsValidRegion reports whether s names a shipping region by full name or
// code, ignoring case.
func IsValidRegion(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range ChileRegions {
		if strings.EqualFold(r.Name, s) || strings.EqualFold(r.Code, s) {
			return true
		}
	}
	return false
}

// newValidator returns a validator with the checkout-specific tags registered.
// It panics if a tag cannot be registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	tags := map[string]validator.Func{
		"notblank": validators.NotBlank,
		"shipping_region": func(fl validator.FieldLevel) bool {
			return IsValidRegion(fl.Field().String())
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %q validation: %v", tag, err))
		}
	}
	return v
}

// OrderStatus is the state of the order submission.
type OrderStatus int

const (
	OrderIdle OrderStatus = iota
	OrderProcessingPayment
	OrderSuccess
	OrderError
)

func (s OrderStatus) String() string {
	switch s {
	case OrderIdle:
		return "idle"
	case OrderProcessingPayment:
		return "processing_payment"
	case OrderSuccess:
		return "success"
	case OrderError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s OrderStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OrderState is the order submission state machine.
type OrderState struct {
	Status  OrderStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// CheckoutForm holds the shipping fields and one error per field.
// An empty error means the field is valid.
type CheckoutForm struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Region    string   `json:"region"`
	Phone     string   `json:"phone"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	NameError    string `json:"nameError,omitempty"`
	AddressError string `json:"addressError,omitempty"`
	RegionError  string `json:"regionError,omitempty"`
	PhoneError   string `json:"phoneError,omitempty"`
}

// HasErrors reports whether any field error is set.
func (f CheckoutForm) HasErrors() bool {
	return f.NameError != "" || f.AddressError != "" || f.RegionError != "" || f.PhoneError != ""
}

// CheckoutState is the observable state of the checkout screen.
type CheckoutState struct {
	Form             CheckoutForm   `json:"form"`
	Order            OrderState     `json:"order"`
	Country          *model.Country `json:"country,omitempty"`
	ValidatingRegion bool           `json:"validatingRegion"`
}

// CountryLookup fetches country metadata by name.
type CountryLookup interface {
	ByName(ctx context.Context, name string) (*model.Country, error)
}

// CheckoutOptions tunes the checkout behaviour.
type CheckoutOptions struct {
	PaymentDelay time.Duration
	Country      string
}

// Checkout validates the shipping form and submits orders.
type Checkout struct {
	client    api.Client
	countries CountryLookup
	locator   location.Provider
	validate  *validator.Validate
	logger    zerolog.Logger

	paymentDelay time.Duration
	country      string

	state     *Observable[CheckoutState]
	regionGen atomic.Uint64
	pending   sync.WaitGroup
}

// NewCheckout creates a checkout view-model. countries and locator may be
// nil, which disables the respective enrichment.
func NewCheckout(
	client api.Client,
	countries CountryLookup,
	locator location.Provider,
	opts CheckoutOptions,
	logger zerolog.Logger,
) *Checkout {
	if opts.Country == "" {
		opts.Country = "chile"
	}
	if opts.PaymentDelay < 0 {
		opts.PaymentDelay = 0
	}

	return &Checkout{
		client:       client,
		countries:    countries,
		locator:      locator,
		validate:     newValidator(),
		logger:       logger.With().Str("viewmodel", "checkout").Logger(),
		paymentDelay: opts.PaymentDelay,
		country:      opts.Country,
		state:        NewObservable(CheckoutState{}),
	}
}

// State returns the current state.
func (c *Checkout) State() CheckoutState { return c.state.Get() }

// Watch follows state changes.
func (c *Checkout) Watch() (<-chan CheckoutState, func()) { return c.state.Watch() }

// Regions returns the shipping regions accepted by the form.
func (c *Checkout) Regions() []model.Region {
	return append([]model.Region(nil), ChileRegions...)
}

// IsValidatingRegion reports whether a region membership check is running.
func (c *Checkout) IsValidatingRegion() bool {
	return c.state.Get().ValidatingRegion
}

// Wait blocks until all pending region checks have finished.
func (c *Checkout) Wait() {
	c.pending.Wait()
}

func (c *Checkout) blank(s string) bool {
	return c.validate.Var(s, "notblank") != nil
}

func (c *Checkout) requiredError(s, msg string) string {
	if c.blank(s) {
		return msg
	}
	return ""
}

func (c *Checkout) phoneError(phone string) string {
	if c.blank(phone) {
		return msgPhoneRequired
	}
	if c.validate.Var(phone, fmt.Sprintf("min=%d", minPhoneLength)) != nil {
		return msgPhoneTooShort
	}
	return ""
}

// SetName updates the recipient name.
func (c *Checkout) SetName(name string) {
	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Form.Name = name
		s.Form.NameError = c.requiredError(name, msgNameRequired)
		return s
	})
}

// SetAddress updates the shipping address.
func (c *Checkout) SetAddress(address string) {
	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Form.Address = address
		s.Form.AddressError = c.requiredError(address, msgAddressRequired)
		return s
	})
}

// SetRegion updates the region and clears its error. A non-blank value is
// checked against the region list in the background; only the result for
// the most recent value is applied.
func (c *Checkout) SetRegion(region string) {
	var gen uint64
	check := !c.blank(region)

	c.state.Update(func(s CheckoutState) CheckoutState {
		gen = c.regionGen.Add(1)
		s.Form.Region = region
		s.Form.RegionError = ""
		s.ValidatingRegion = check
		return s
	})

	if !check {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		valid := c.validate.Var(region, "shipping_region") == nil

		c.state.Update(func(s CheckoutState) CheckoutState {
			if gen != c.regionGen.Load() {
				return s
			}
			s.ValidatingRegion = false
			if !valid {
				s.Form.RegionError = msgRegionInvalid
			}
			return s
		})

		if !valid {
			c.logger.Debug().Str("region", region).Msg("region not in shipping list")
		}
	}()
}

// SetPhone updates the contact phone.
func (c *Checkout) SetPhone(phone string) {
	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Form.Phone = phone
		s.Form.PhoneError = c.phoneError(phone)
		return s
	})
}

// SetLocation records the delivery coordinates.
func (c *Checkout) SetLocation(latitude, longitude float64) {
	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Form.Latitude = &latitude
		s.Form.Longitude = &longitude
		return s
	})
}

// UseCurrentLocation fetches the current position once and stores it in
// the form. Failures are ignored.
func (c *Checkout) UseCurrentLocation(ctx context.Context) {
	if c.locator == nil {
		return
	}

	loc, err := c.locator.Current(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("location unavailable")
		return
	}

	c.SetLocation(loc.Latitude, loc.Longitude)
}

// LoadCountryInfo fetches metadata for the store's country to decorate the
// form. Failures are ignored.
func (c *Checkout) LoadCountryInfo(ctx context.Context) {
	if c.countries == nil {
		return
	}

	country, err := c.countries.ByName(ctx, c.country)
	if err != nil {
		c.logger.Debug().Err(err).Str("country", c.country).Msg("country info unavailable")
		return
	}

	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Country = country
		return s
	})
}

// validateForm re-checks the form in field order and stops at the first
// failure, setting that field's error.
func (c *Checkout) validateForm() error {
	var failed bool

	c.state.Update(func(s CheckoutState) CheckoutState {
		f := &s.Form
		switch {
		case c.blank(f.Name):
			f.NameError = msgNameRequired
		case c.blank(f.Address):
			f.AddressError = msgAddressRequired
		case c.blank(f.Region):
			f.RegionError = msgRegionRequired
		case c.phoneError(f.Phone) != "":
			f.PhoneError = msgPhoneInvalid
		default:
			return s
		}
		failed = true
		return s
	})

	if failed {
		return model.ErrValidation
	}
	return nil
}

// Submit validates the form, simulates the payment and creates the order
// for items. On success the cart is cleared on a best-effort basis.
func (c *Checkout) Submit(ctx context.Context, userID string, items []model.CartItem, total float64) error {
	if err := c.validateForm(); err != nil {
		return err
	}

	if userID == "" {
		return model.ErrNotLoggedIn
	}

	if len(items) == 0 {
		return model.ErrEmptyCart
	}

	var busy bool
	current := c.state.Update(func(s CheckoutState) CheckoutState {
		if s.Order.Status == OrderProcessingPayment {
			busy = true
			return s
		}
		s.Order = OrderState{Status: OrderProcessingPayment}
		return s
	})
	if busy {
		return ErrCheckoutInProgress
	}

	c.logger.Info().Str("user_id", userID).Int("items", len(items)).Float64("total", total).Msg("processing payment")

	if err := c.simulatePayment(ctx); err != nil {
		c.setOrder(OrderState{Status: OrderIdle})
		return err
	}

	req := buildOrderRequest(userID, items, total, current.Form)

	resp, err := c.client.CreateOrder(ctx, req)
	if err != nil {
		msg := msgPaymentFailed
		if api.IsTransportError(err) {
			msg = msgConnectionError + ": " + transportCause(err)
		}
		c.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create order")
		c.setOrder(OrderState{Status: OrderError, Message: msg})
		return err
	}
	if !resp.Success {
		c.logger.Warn().Str("user_id", userID).Str("message", resp.Message).Msg("order rejected")
		c.setOrder(OrderState{Status: OrderError, Message: msgPaymentFailed})
		return model.ErrOrderRejected
	}

	if err := c.client.ClearCart(ctx, userID); err != nil {
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to clear cart after order")
	}

	c.logger.Info().Str("user_id", userID).Msg("order created")
	c.setOrder(OrderState{Status: OrderSuccess, Message: msgPaymentSuccessful})
	return nil
}

// Reset returns the order state to Idle.
func (c *Checkout) Reset() {
	c.setOrder(OrderState{Status: OrderIdle})
}

func (c *Checkout) setOrder(order OrderState) {
	c.state.Update(func(s CheckoutState) CheckoutState {
		s.Order = order
		return s
	})
}

func (c *Checkout) simulatePayment(ctx context.Context) error {
	if c.paymentDelay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.paymentDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildOrderRequest(userID string, items []model.CartItem, total float64, form CheckoutForm) model.OrderRequest {
	lines := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, model.OrderItem{
			BookID:   item.BookID,
			Title:    orderItemTitle,
			Quantity: item.Quantity,
			Price:    item.PricePerUnit,
		})
	}

	return model.OrderRequest{
		UserID: userID,
		Items:  lines,
		Total:  total,
		ShippingInfo: model.ShippingInfo{
			Name:      form.Name,
			Address:   form.Address,
			Region:    form.Region,
			Phone:     form.Phone,
			Latitude:  form.Latitude,
			Longitude: form.Longitude,
		},
	}
}
