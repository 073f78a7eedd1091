package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"commerce-service/internal/domain"
	rabbit "commerce-service/internal/infra/rabbitmq"
	"commerce-service/internal/notification"
	"commerce-service/internal/pricing"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"

	"github.com/google/uuid"
)

// maxTxAttempts bounds how often a deadlocked transaction is run again.
const maxTxAttempts = 3

type OrderLineInput struct {
	ProductID uint64  `json:"productId" validate:"required"`
	VariantID *uint64 `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity" validate:"min=1"`
}

type CreateOrderInput struct {
	CustomerID      *uint64             `json:"customerId,omitempty"`
	Guest           domain.GuestContact `json:"guest"`
	BillingAddress  *domain.Address     `json:"billingAddress" validate:"required"`
	ShippingAddress *domain.Address     `json:"shippingAddress,omitempty"`
	Items           []OrderLineInput    `json:"items" validate:"required,min=1,dive"`
	CouponCode      string              `json:"couponCode,omitempty" validate:"max=64"`
	Notes           string              `json:"notes,omitempty" validate:"max=2000"`
}

type ItemFulfillment struct {
	ItemID   uint64 `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type OrderService struct {
	repos     Repositories
	publisher rabbit.PublisherInterface
	notifier  notification.Notifier
	pricing   pricing.Options
	products  ProductCache
	lists     OrderListCache
	now       func() time.Time

	// publishTimeout bounds the broker round trip after commit.
	publishTimeout time.Duration
}

func NewOrderService(repos Repositories, pub rabbit.PublisherInterface, notifier notification.Notifier, opts pricing.Options) *OrderService {
	return &OrderService{
		repos:     repos,
		publisher: pub,
		notifier:  notifier,
		pricing:   opts,
		now:       time.Now,

		publishTimeout: 5 * time.Second,
	}
}

// SetCaches wires the redis caches; both are optional.
func (s *OrderService) SetCaches(products ProductCache, lists OrderListCache) {
	s.products = products
	s.lists = lists
}

// checkoutLine is one merged line with everything needed to price it and
// reserve its stock.
type checkoutLine struct {
	product  *domain.Product
	variant  *domain.ProductVariant
	quantity int
}

func (l checkoutLine) key() [2]uint64 {
	var v uint64
	if l.variant != nil {
		v = l.variant.ID
	}
	return [2]uint64{l.product.ID, v}
}

func (l checkoutLine) tracked() bool {
	return l.product.TrackInventory
}

func (l checkoutLine) available() int {
	if l.variant != nil {
		return l.variant.StockQuantity
	}
	return l.product.StockQuantity
}

func (l checkoutLine) stockLine() repository.StockLine {
	sl := repository.StockLine{
		ProductID:      l.product.ID,
		Quantity:       l.quantity,
		AllowBackorder: l.product.AllowBackorder,
	}
	if l.variant != nil {
		id := l.variant.ID
		sl.VariantID = &id
	}
	return sl
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	verr := validation.Collect(in)
	if in.CustomerID == nil {
		if strings.TrimSpace(in.Guest.Name) == "" {
			verr.Add("guest.name", "is required")
		}
		if strings.TrimSpace(in.Guest.Email) == "" {
			verr.Add("guest.email", "is required")
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var customer *domain.Customer
	if in.CustomerID != nil {
		c, err := s.repos.Customers.FindByID(ctx, *in.CustomerID)
		if err != nil {
			return nil, serviceError("load customer", notFound("customer", *in.CustomerID, err))
		}
		customer = c
	}

	lines, err := s.resolveLines(ctx, in.Items)
	if err != nil {
		return nil, serviceError("resolve order lines", err)
	}

	var discounts []pricing.Discount
	couponCode := strings.ToUpper(strings.TrimSpace(in.CouponCode))
	if couponCode != "" {
		coupon, err := s.repos.Coupons.FindByCode(ctx, couponCode)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, serviceError("load coupon", err)
		}
		if coupon == nil || !coupon.Usable(s.now()) {
			return nil, domain.NewValidationError("couponCode", "is unknown or expired")
		}
		couponCode = coupon.Code
		discounts = append(discounts, pricing.FromCoupon(coupon))
	}

	priced := make([]pricing.Line, len(lines))
	for i, l := range lines {
		priced[i] = pricing.Line{UnitPrice: pricing.UnitPrice(l.product, l.variant), Quantity: l.quantity}
	}
	totals := pricing.ComputeTotals(priced, discounts, s.pricing)

	// stock rows are always locked in the same order so concurrent checkouts
	// over overlapping products cannot deadlock each other
	reserve := make([]checkoutLine, 0, len(lines))
	for _, l := range lines {
		if l.tracked() {
			reserve = append(reserve, l)
		}
	}
	slices.SortFunc(reserve, func(a, b checkoutLine) int {
		ka, kb := a.key(), b.key()
		if ka[0] != kb[0] {
			return cmpUint(ka[0], kb[0])
		}
		return cmpUint(ka[1], kb[1])
	})

	build := func() *domain.Order {
		o := &domain.Order{
			Number:            uuid.NewString(),
			CustomerID:        in.CustomerID,
			BillingAddress:    *in.BillingAddress,
			ShippingAddress:   in.ShippingAddress,
			Subtotal:          totals.Subtotal,
			DiscountTotal:     totals.Discount,
			ShippingTotal:     totals.Shipping,
			TaxTotal:          totals.Tax,
			Total:             totals.Total,
			CouponCode:        couponCode,
			Status:            domain.StatusPending,
			FulfillmentStatus: domain.FulfillmentUnfulfilled,
			PaymentStatus:     domain.PaymentPending,
			Notes:             strings.TrimSpace(in.Notes),
		}
		if in.CustomerID == nil {
			o.Guest = in.Guest
			o.Guest.Email = strings.ToLower(strings.TrimSpace(o.Guest.Email))
		}
		if o.BillingAddress.Country == "" {
			o.BillingAddress.Country = "BR"
		}
		for i, l := range lines {
			item := domain.OrderItem{
				ProductID:     l.product.ID,
				ProductName:   l.product.Name,
				SKU:           l.product.SKU,
				UnitPrice:     priced[i].UnitPrice,
				Quantity:      l.quantity,
				LineTotal:     totals.LineTotals[i],
				StockReserved: l.tracked(),
			}
			if l.variant != nil {
				id := l.variant.ID
				item.VariantID = &id
				item.VariantName = l.variant.Name
				item.SKU = l.variant.SKU
			}
			o.Items = append(o.Items, item)
		}
		return o
	}

	var order *domain.Order
	err = s.withinTx(ctx, "create order", func(ctx context.Context) error {
		order = build()
		for _, l := range reserve {
			if err := s.repos.Products.DecrementStock(ctx, l.stockLine()); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return &domain.ConflictError{Entity: "product", ID: l.product.ID, Reason: "insufficient stock"}
				}
				return err
			}
		}
		return s.repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, serviceError("create order", err)
	}

	log.Printf("[order] created order %d (%s) total=%s items=%d", order.ID, order.Number, order.Total, len(order.Items))

	s.publish(ctx, domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		Number:     order.Number,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		ItemCount:  len(order.Items),
		CreatedAt:  order.CreatedAt,
	})
	s.notifyConfirmation(ctx, order, customer)
	s.invalidate(ctx, order, reservedProductIDs(reserve))

	return order, nil
}

// resolveLines merges duplicate lines and loads their products. Stock is
// checked here too so obvious shortages fail before any write.
func (s *OrderService) resolveLines(ctx context.Context, items []OrderLineInput) ([]checkoutLine, error) {
	var lines []checkoutLine
	index := map[[2]uint64]int{}
	products := map[uint64]*domain.Product{}
	verr := &domain.ValidationError{}

	for i, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			p, err := s.repos.Products.FindByID(ctx, item.ProductID)
			if err != nil {
				return nil, notFound("product", item.ProductID, err)
			}
			product = p
			products[p.ID] = p
		}
		if product.Status == domain.ProductArchived {
			return nil, &domain.NotFoundError{Entity: "product", ID: product.ID}
		}
		if !product.Purchasable() {
			verr.Add(fmt.Sprintf("items[%d].productId", i), "product is not available for sale")
			continue
		}

		line := checkoutLine{product: product, quantity: item.Quantity}
		if item.VariantID != nil {
			v, err := s.repos.Products.FindVariantByID(ctx, *item.VariantID)
			if err != nil {
				return nil, notFound("variant", *item.VariantID, err)
			}
			if v.ProductID != product.ID {
				return nil, &domain.NotFoundError{Entity: "variant", ID: *item.VariantID}
			}
			line.variant = v
		}

		if at, seen := index[line.key()]; seen {
			lines[at].quantity += line.quantity
			continue
		}
		index[line.key()] = len(lines)
		lines = append(lines, line)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	for _, l := range lines {
		if l.tracked() && !l.product.AllowBackorder && l.quantity > l.available() {
			return nil, &domain.ConflictError{
				Entity: "product",
				ID:     l.product.ID,
				Reason: fmt.Sprintf("insufficient stock: requested %d, available %d", l.quantity, l.available()),
			}
		}
	}
	return lines, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	o, err := s.repos.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, serviceError("get order", notFound("order", id, err))
	}
	return o, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID uint64) ([]domain.Order, error) {
	generation := int64(-1)
	if s.lists != nil {
		if orders, ok := s.lists.Get(ctx, customerID); ok {
			return orders, nil
		}
		generation = s.lists.Generation(ctx, customerID)
	}

	if _, err := s.repos.Customers.FindByID(ctx, customerID); err != nil {
		return nil, serviceError("list orders", notFound("customer", customerID, err))
	}
	orders, err := s.repos.Orders.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, serviceError("list orders", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	if s.lists != nil {
		s.lists.Set(ctx, customerID, generation, orders)
	}
	return orders, nil
}

// TransitionStatus moves an order along the status graph on behalf of source
// (an admin id, "system", ...).
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uint64, to domain.OrderStatus, source string) (*domain.Order, error) {
	if !to.Valid() {
		return nil, domain.NewValidationError("status", "is not a known order status")
	}

	var (
		order     *domain.Order
		from      domain.OrderStatus
		restocked []uint64
	)
	err := s.withinTx(ctx, "transition order", func(ctx context.Context) error {
		o, err := s.repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return notFound("order", orderID, err)
		}
		if err := domain.CheckTransition(o.Status, to); err != nil {
			return err
		}

		next := o.State()
		next.Status = to
		from = o.Status
		restocked, err = s.writeTransition(ctx, o, next, source)
		order = o
		return err
	})
	if err != nil {
		return nil, serviceError("transition order", err)
	}

	log.Printf("[order] order %d %s -> %s by %s", order.ID, from, to, source)
	s.afterStatusChange(ctx, order, from, source)
	s.invalidate(ctx, order, restocked)
	return order, nil
}

// writeTransition persists next for o inside the caller's transaction. Stock
// of unshipped quantities is given back when next releases it; shipping marks
// every item fulfilled. It returns the ids of restocked products.
func (s *OrderService) writeTransition(ctx context.Context, o *domain.Order, next domain.OrderState, source string) ([]uint64, error) {
	from := o.State()
	statusChanged := next.Status != from.Status

	var (
		changedItems []domain.OrderItem
		restocked    []uint64
	)
	if statusChanged && next.Status.ReleasesStock() {
		items := slices.Clone(o.Items)
		slices.SortFunc(items, func(a, b domain.OrderItem) int {
			if a.ProductID != b.ProductID {
				return cmpUint(a.ProductID, b.ProductID)
			}
			return cmpUint(derefID(a.VariantID), derefID(b.VariantID))
		})
		for _, it := range items {
			if !it.StockReserved || it.Restocked {
				continue
			}
			if qty := it.Unfulfilled(); qty > 0 {
				line := repository.StockLine{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: qty}
				if err := s.repos.Products.IncrementStock(ctx, line); err != nil {
					return nil, fmt.Errorf("restock product %d: %w", it.ProductID, err)
				}
				restocked = append(restocked, it.ProductID)
			}
			it.Restocked = true
			changedItems = append(changedItems, it)
		}
		next.FulfillmentStatus = domain.FulfillmentRestocked
	}
	if statusChanged && next.Status == domain.StatusShipped {
		for _, it := range o.Items {
			if it.FulfilledQuantity != it.Quantity {
				it.FulfilledQuantity = it.Quantity
				changedItems = append(changedItems, it)
			}
		}
		next.FulfillmentStatus = domain.FulfillmentFulfilled
	}

	if next != from {
		if err := s.repos.Orders.UpdateState(ctx, o.ID, from, next); err != nil {
			return nil, err
		}
	}
	if len(changedItems) > 0 {
		if err := s.repos.Orders.UpdateItems(ctx, changedItems); err != nil {
			return nil, err
		}
		mergeItems(o, changedItems)
	}
	if statusChanged && next.Status == domain.StatusCancelled {
		now := s.now()
		o.CancelledAt = &now
		if err := s.repos.Orders.SetCancelledAt(ctx, o); err != nil {
			return nil, err
		}
	}
	if statusChanged {
		change := &domain.StatusChange{OrderID: o.ID, From: from.Status, To: next.Status, Source: source}
		if err := s.repos.Orders.AddStatusChange(ctx, change); err != nil {
			return nil, err
		}
	}

	o.Apply(next)
	return restocked, nil
}

// FulfillItems records a (partial) shipment of a processing order.
func (s *OrderService) FulfillItems(ctx context.Context, orderID uint64, shipments []ItemFulfillment) (*domain.Order, error) {
	verr := &domain.ValidationError{}
	if len(shipments) == 0 {
		verr.Add("items", "is required")
	}
	for i, sh := range shipments {
		for _, fe := range validation.Collect(sh).Fields {
			verr.Add(fmt.Sprintf("items[%d].%s", i, fe.Field), fe.Message)
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var order *domain.Order
	err := s.withinTx(ctx, "fulfill items", func(ctx context.Context) error {
		o, err := s.repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return notFound("order", orderID, err)
		}
		if o.Status != domain.StatusProcessing {
			return &domain.ConflictError{Entity: "order", ID: o.ID, Reason: "only processing orders can be fulfilled, order is " + string(o.Status)}
		}

		byID := make(map[uint64]int, len(o.Items))
		for i, it := range o.Items {
			byID[it.ID] = i
		}
		verr := &domain.ValidationError{}
		touched := map[uint64]struct{}{}
		for i, sh := range shipments {
			idx, ok := byID[sh.ItemID]
			if !ok {
				verr.Add(fmt.Sprintf("items[%d].itemId", i), "does not belong to the order")
				continue
			}
			it := &o.Items[idx]
			if it.FulfilledQuantity+sh.Quantity > it.Quantity {
				verr.Add(fmt.Sprintf("items[%d].quantity", i),
					fmt.Sprintf("exceeds the %d units left to ship", it.Unfulfilled()))
				continue
			}
			it.FulfilledQuantity += sh.Quantity
			touched[it.ID] = struct{}{}
		}
		if verr.HasErrors() {
			return verr
		}

		var changed []domain.OrderItem
		complete := true
		for _, it := range o.Items {
			if _, ok := touched[it.ID]; ok {
				changed = append(changed, it)
			}
			if it.Unfulfilled() > 0 {
				complete = false
			}
		}
		if err := s.repos.Orders.UpdateItems(ctx, changed); err != nil {
			return err
		}

		from := o.State()
		next := from
		next.FulfillmentStatus = domain.FulfillmentPartial
		if complete {
			next.FulfillmentStatus = domain.FulfillmentFulfilled
		}
		if next != from {
			if err := s.repos.Orders.UpdateState(ctx, o.ID, from, next); err != nil {
				return err
			}
			o.Apply(next)
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, serviceError("fulfill items", err)
	}

	log.Printf("[order] order %d fulfillment now %s", order.ID, order.FulfillmentStatus)
	s.invalidate(ctx, order, nil)
	return order, nil
}

// ApplyPaymentStatus folds a payment notification into the order. Each
// (order, externalRef, status) triple takes effect at most once; statuses that
// rank below the current one and orders already in a terminal state are
// recorded but change nothing.
func (s *OrderService) ApplyPaymentStatus(ctx context.Context, orderID uint64, status domain.PaymentStatus, externalRef string) (*domain.Order, error) {
	verr := &domain.ValidationError{}
	if !status.Valid() {
		verr.Add("status", "is not a known payment status")
	}
	if strings.TrimSpace(externalRef) == "" {
		verr.Add("externalRef", "is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	var (
		order     *domain.Order
		from      domain.OrderState
		applied   bool
		restocked []uint64
	)
	source := "payment:" + externalRef
	err := s.withinTx(ctx, "apply payment", func(ctx context.Context) error {
		o, err := s.repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return notFound("order", orderID, err)
		}
		order = o
		from = o.State()

		next, ok := paymentOutcome(from, status)
		event := &domain.PaymentEvent{OrderID: o.ID, ExternalRef: externalRef, Status: status, Applied: ok}
		if err := s.repos.Payments.RecordEvent(ctx, event); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				log.Printf("[payment] order %d: %s/%s already processed, ignoring", o.ID, externalRef, status)
				return nil
			}
			return err
		}
		if !ok {
			log.Printf("[payment] order %d: %s does not supersede payment %s / order %s, recorded only",
				o.ID, status, from.PaymentStatus, from.Status)
			return nil
		}

		restocked, err = s.writeTransition(ctx, o, next, source)
		if err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, serviceError("apply payment", err)
	}
	if !applied {
		return order, nil
	}

	log.Printf("[payment] order %d payment %s -> %s, order %s -> %s", order.ID, from.PaymentStatus, order.PaymentStatus, from.Status, order.Status)
	s.publish(ctx, domain.EventPaymentUpdated, domain.PaymentUpdatedEvent{
		OrderID:     order.ID,
		ExternalRef: externalRef,
		Status:      status,
		UpdatedAt:   s.now(),
	})
	if order.Status != from.Status {
		s.afterStatusChange(ctx, order, from.Status, source)
	}
	s.invalidate(ctx, order, restocked)
	return order, nil
}

// paymentOutcome returns the state a payment status leads to, and false when
// it must not change anything.
func paymentOutcome(current domain.OrderState, status domain.PaymentStatus) (domain.OrderState, bool) {
	if current.Status.Terminal() || !status.Supersedes(current.PaymentStatus) {
		return current, false
	}

	next := current
	next.PaymentStatus = status
	switch status {
	case domain.PaymentPaid:
		if current.Status == domain.StatusPending {
			next.Status = domain.StatusConfirmed
		}
	case domain.PaymentCancelled:
		if domain.CanTransition(current.Status, domain.StatusCancelled) {
			next.Status = domain.StatusCancelled
		}
	case domain.PaymentRefunded:
		if domain.CanTransition(current.Status, domain.StatusRefunded) {
			next.Status = domain.StatusRefunded
		}
	}
	return next, true
}

// withinTx runs fn in a transaction, running it again when the database
// reports a deadlock or lock timeout.
func (s *OrderService) withinTx(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.repos.Tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, repository.ErrRetryable) {
			return err
		}
		log.Printf("[order] %s: attempt %d/%d aborted: %v", op, attempt, maxTxAttempts, err)
	}
	return &domain.ConflictError{Reason: fmt.Sprintf("%s: gave up after %d deadlocked attempts", op, maxTxAttempts)}
}

func (s *OrderService) publish(ctx context.Context, pattern string, evt any) {
	if s.publisher == nil {
		return
	}
	// detached from the request, but bounded
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, pattern, evt); err != nil {
		log.Printf("[order] failed to publish %s: %v", pattern, err)
	}
}

func (s *OrderService) afterStatusChange(ctx context.Context, order *domain.Order, from domain.OrderStatus, source string) {
	s.publish(ctx, domain.EventOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:   order.ID,
		From:      from,
		To:        order.Status,
		Source:    source,
		ChangedAt: s.now(),
	})

	email, name := s.contact(ctx, order)
	if email == "" || s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notification.Message{
		To:   email,
		Kind: notification.KindOrderStatusUpdate,
		Data: map[string]any{
			"Name":           name,
			"OrderNumber":    order.Number,
			"PreviousStatus": string(from),
			"Status":         string(order.Status),
		},
	})
}

func (s *OrderService) notifyConfirmation(ctx context.Context, order *domain.Order, customer *domain.Customer) {
	if s.notifier == nil {
		return
	}
	email := order.ContactEmail(customer)
	if email == "" {
		return
	}
	name := order.Guest.Name
	if customer != nil {
		name = customer.Name
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		label := it.ProductName
		if it.VariantName != "" {
			label += " (" + it.VariantName + ")"
		}
		items = append(items, map[string]any{
			"Name":      label,
			"Quantity":  it.Quantity,
			"LineTotal": pricing.Round(it.LineTotal).StringFixed(2),
		})
	}

	s.notifier.Notify(ctx, notification.Message{
		To:   email,
		Kind: notification.KindOrderConfirmation,
		Data: map[string]any{
			"Name":        name,
			"OrderNumber": order.Number,
			"Items":       items,
			"Subtotal":    order.Subtotal.StringFixed(2),
			"Discount":    order.DiscountTotal.StringFixed(2),
			"Shipping":    order.ShippingTotal.StringFixed(2),
			"Tax":         order.TaxTotal.StringFixed(2),
			"Total":       order.Total.StringFixed(2),
		},
	})
}

func (s *OrderService) contact(ctx context.Context, order *domain.Order) (string, string) {
	if order.CustomerID == nil {
		return order.Guest.Email, order.Guest.Name
	}
	c, err := s.repos.Customers.FindByID(ctx, *order.CustomerID)
	if err != nil {
		log.Printf("[order] no contact for order %d: %v", order.ID, err)
		return "", ""
	}
	return c.Email, c.Name
}

func (s *OrderService) invalidate(ctx context.Context, order *domain.Order, productIDs []uint64) {
	if s.products != nil && len(productIDs) > 0 {
		s.products.Invalidate(ctx, productIDs...)
	}
	if s.lists != nil && order.CustomerID != nil {
		s.lists.Invalidate(ctx, *order.CustomerID)
	}
}

func reservedProductIDs(lines []checkoutLine) []uint64 {
	ids := make([]uint64, 0, len(lines))
	for _, l := range lines {
		if !slices.Contains(ids, l.product.ID) {
			ids = append(ids, l.product.ID)
		}
	}
	return ids
}

func mergeItems(o *domain.Order, changed []domain.OrderItem) {
	for _, c := range changed {
		for i := range o.Items {
			if o.Items[i].ID == c.ID {
				o.Items[i] = c
			}
		}
	}
}

func derefID(id *uint64) uint64 {
	if id == nil {
		return 0
	}
	return *id
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
