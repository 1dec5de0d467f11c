package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"reattach/core/bridge"
	"reattach/core/gormorm"
	"reattach/core/orm"
	"reattach/core/persistent"
	"reattach/core/store"
	"reattach/core/utils"
	"reattach/feature/catalog/models"

	"go.uber.org/zap"
)

var (
	// ErrCustomerNotFound is returned when no customer row matches the requested id.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrInvalidRequest is returned for request bodies the catalog cannot apply.
	ErrInvalidRequest = errors.New("invalid request")
)

var (
	customerType = reflect.TypeOf(models.Customer{})
	tagType      = reflect.TypeOf(models.Tag{})
)

// Service moves customers across the detached boundary.
type Service struct {
	bridge *bridge.Bridge
	store  store.Store
	logger *zap.Logger
}

// NewService creates a catalog service. descriptors may be nil, in which case
// stateful fetches fall back to inline descriptors.
func NewService(b *bridge.Bridge, descriptors store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{bridge: b, store: descriptors, logger: logger}
}

// GetCustomer loads a customer with its tags and describes its associations.
func (s *Service) GetCustomer(ctx context.Context, id uint, opts FetchOptions) (*CustomerDTO, error) {
	var out *CustomerDTO
	err := s.withSession(ctx, func(ctx context.Context, session *gormorm.Session) error {
		loaded, err := session.LoadAssociation(ctx, s.entityName(customerType), id, "Tags")
		if err != nil {
			return err
		}
		if loaded == nil {
			return fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
		}
		customer := loaded.(*models.Customer)

		if opts.Orders {
			withOrders, err := session.LoadAssociation(ctx, s.entityName(customerType), id, "Orders")
			if err != nil {
				return err
			}
			if withOrders == nil {
				return fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
			}
			customer.Orders = withOrders.(*models.Customer).Orders
			if customer.Orders == nil {
				customer.Orders = []*models.Order{}
			}
		}

		out, err = s.describe(ctx, session, customer, opts.Stateful)
		return err
	})
	return out, err
}

// UpdateCustomer applies req to the stored customer and writes the associations
// whose content the client changed.
func (s *Service) UpdateCustomer(ctx context.Context, id uint, req UpdateCustomerRequest) (*CustomerDTO, error) {
	var out *CustomerDTO
	err := s.withSession(ctx, func(ctx context.Context, session *gormorm.Session) error {
		status, err := s.parseStatus(req.Status)
		if err != nil {
			return err
		}
		loaded, err := session.Get(ctx, customerType, id)
		if err != nil {
			return err
		}
		if loaded == nil {
			return fmt.Errorf("%w: %d", ErrCustomerNotFound, id)
		}
		customer := loaded.(*models.Customer)
		customer.Name = req.Name
		customer.Status = status
		customer.Address = req.Address
		customer.Balance = models.Money{Cents: req.BalanceCents}
		session.Save(customer)

		var tokens []string
		if req.Tags != nil {
			token, err := s.reconcile(ctx, session, customer, "Tags", req.Tags.Token, req.Tags.Descriptor, tagModels(req.Tags.Items))
			if err != nil {
				return err
			}
			tokens = append(tokens, token)
		}
		if req.Orders != nil {
			token, err := s.reconcile(ctx, session, customer, "Orders", req.Orders.Token, req.Orders.Descriptor, orderModels(req.Orders.Items))
			if err != nil {
				return err
			}
			tokens = append(tokens, token)
		}

		if err := s.bridge.FlushIfNeeded(ctx); err != nil {
			return err
		}
		s.forget(ctx, tokens)

		stateful := false
		for _, token := range tokens {
			stateful = stateful || token != ""
		}
		out, err = s.GetCustomer(ctx, id, FetchOptions{Orders: req.Orders != nil, Stateful: stateful})
		return err
	})
	return out, err
}

// reconcile rebuilds one association of customer from the descriptor the client echoed
// and attaches it to the session. It returns the token the descriptor came from.
func (s *Service) reconcile(ctx context.Context, session *gormorm.Session, customer *models.Customer, property, token string, d *bridge.CollectionDescriptor, underlying any) (string, error) {
	d, err := s.resolve(ctx, token, d)
	if err != nil {
		return "", err
	}
	if d == nil {
		return "", fmt.Errorf("%w: %s sent without descriptor or token", ErrInvalidRequest, property)
	}
	if want := s.entityName(customerType) + "." + property; d.Role != want {
		return "", fmt.Errorf("%w: descriptor of %s sent as %s", ErrInvalidRequest, d.Role, want)
	}
	if id := utils.CanonicalID(d.Key); id != utils.CanonicalID(customer.ID) {
		return "", fmt.Errorf("%w: descriptor of customer %s sent for customer %d", ErrInvalidRequest, id, customer.ID)
	}

	w, err := s.bridge.RehydrateCollection(ctx, customer, d, underlying)
	if err != nil {
		return "", err
	}
	session.Attach(w)
	s.logger.Debug("Reconciled association",
		zap.String("role", d.Role),
		zap.Bool("dirty", w.IsDirty()),
		zap.Int("members", w.Len()))
	return token, nil
}

// resolve returns the inline descriptor, or the one stored under token.
func (s *Service) resolve(ctx context.Context, token string, d *bridge.CollectionDescriptor) (*bridge.CollectionDescriptor, error) {
	if token == "" {
		return d, nil
	}
	if d != nil {
		return nil, fmt.Errorf("%w: both token and descriptor sent", ErrInvalidRequest)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: no descriptor store configured", ErrInvalidRequest)
	}
	return s.store.Get(ctx, token)
}

// forget drops tokens that were consumed by a successful update.
func (s *Service) forget(ctx context.Context, tokens []string) {
	if s.store == nil {
		return
	}
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if err := s.store.Delete(ctx, token); err != nil {
			s.logger.Warn("Failed to delete descriptor", zap.String("token", token), zap.Error(err))
		}
	}
}

// describe wraps the associations of customer and serializes them.
func (s *Service) describe(ctx context.Context, session *gormorm.Session, customer *models.Customer, stateful bool) (*CustomerDTO, error) {
	out := &CustomerDTO{
		ID:           customer.ID,
		Name:         customer.Name,
		Status:       customer.Status.String(),
		Address:      customer.Address,
		BalanceCents: customer.Balance.Cents,
	}

	tags, err := session.Wrap(ctx, customer, "Tags")
	if err != nil {
		return nil, err
	}
	if out.Tags.Token, out.Tags.Descriptor, err = s.serialize(ctx, tags, stateful); err != nil {
		return nil, err
	}
	if out.Tags.Items, err = members(ctx, tags, tagDTO); err != nil {
		return nil, err
	}

	orders, err := session.Wrap(ctx, customer, "Orders")
	if err != nil {
		return nil, err
	}
	if out.Orders.Token, out.Orders.Descriptor, err = s.serialize(ctx, orders, stateful); err != nil {
		return nil, err
	}
	if out.Orders.Items, err = members(ctx, orders, orderDTO); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) serialize(ctx context.Context, w persistent.Collection, stateful bool) (string, *bridge.CollectionDescriptor, error) {
	d, err := s.bridge.SerializeCollection(ctx, w)
	if err != nil {
		return "", nil, err
	}
	if !stateful || s.store == nil {
		return "", d, nil
	}
	token, err := s.store.Put(ctx, d)
	if err != nil {
		return "", nil, fmt.Errorf("storing descriptor of %s: %w", d.Role, err)
	}
	return token, nil, nil
}

// members converts the content of an initialized wrapper. Uninitialized wrappers give nil.
func members[M any, D any](ctx context.Context, w persistent.Collection, convert func(*M) D) ([]D, error) {
	if !w.WasInitialized() {
		return nil, nil
	}
	out := make([]D, 0, w.Len())
	for _, item := range w.Items() {
		if init, ok := orm.AsProxy(item); ok {
			impl, err := init.Implementation(ctx)
			if err != nil {
				return nil, err
			}
			item = impl
		}
		m, ok := item.(*M)
		if !ok {
			return nil, fmt.Errorf("unexpected member %T in %s", item, w.Role())
		}
		out = append(out, convert(m))
	}
	return out, nil
}

// TagReference returns the proxy descriptor of a tag without loading it.
func (s *Service) TagReference(ctx context.Context, id uint) (*bridge.ProxyDescriptor, error) {
	var out *bridge.ProxyDescriptor
	err := s.withSession(ctx, func(ctx context.Context, session *gormorm.Session) error {
		proxy, err := session.Load(ctx, s.entityName(tagType), id)
		if err != nil {
			return err
		}
		out, err = s.bridge.SerializeEntityProxy(ctx, proxy)
		return err
	})
	return out, err
}

// ResolveReference turns a proxy descriptor back into the entity it names.
func (s *Service) ResolveReference(ctx context.Context, d *bridge.ProxyDescriptor) (any, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: empty reference", ErrInvalidRequest)
	}
	var out any
	err := s.withSession(ctx, func(ctx context.Context, _ *gormorm.Session) error {
		proxy, err := s.bridge.RehydrateEntityProxy(ctx, d)
		if err != nil {
			return err
		}
		if err := s.bridge.Initialize(ctx, proxy); err != nil {
			return err
		}
		out = proxy
		if init, ok := orm.AsProxy(proxy); ok {
			out, err = init.Implementation(ctx)
		}
		return err
	})
	return out, err
}

// TagUsage counts the customers carrying a tag.
func (s *Service) TagUsage(ctx context.Context, id uint) (*UsageDTO, error) {
	rows, err := s.bridge.ExecuteNamedQuery(ctx,
		"SELECT COUNT(*) AS customers FROM customer_tags WHERE tag_id = @tag",
		map[string]any{"tag": id})
	if err != nil {
		return nil, err
	}
	usage := &UsageDTO{TagID: id}
	if len(rows) > 0 {
		usage.Customers = utils.ToInt64(rows[0]["customers"])
	}
	return usage, nil
}

// Classify reports how the ORM sees the registered type named name.
func (s *Service) Classify(name string) (*ClassificationDTO, error) {
	t, ok := s.bridge.Introspector().TypeByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", orm.ErrUnknownEntity, name)
	}
	c, err := s.bridge.Classify(t)
	if err != nil {
		return nil, err
	}
	return &ClassificationDTO{
		Type:           name,
		Classification: c.String(),
		Persistent:     c.Kind != bridge.ClassTransient,
	}, nil
}

func (s *Service) parseStatus(name string) (models.Status, error) {
	if name == "" {
		return models.StatusActive, nil
	}
	v, ok := s.bridge.Introspector().EnumValue(reflect.TypeOf(models.StatusActive), name)
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, name)
	}
	return v.(models.Status), nil
}

func (s *Service) entityName(t reflect.Type) string {
	return s.bridge.Introspector().TypeName(t)
}

// withSession runs fn with the gorm session bound to a scope opened for the call.
func (s *Service) withSession(ctx context.Context, fn func(context.Context, *gormorm.Session) error) error {
	ctx, err := s.bridge.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.bridge.CloseSession(ctx); cerr != nil {
			s.logger.Warn("Failed to close session", zap.Error(cerr))
		}
	}()

	raw, ok := s.bridge.Session(ctx)
	if !ok {
		return fmt.Errorf("no session bound to context")
	}
	session, ok := gormorm.FromSession(raw)
	if !ok {
		return fmt.Errorf("catalog needs a gorm session, got %T", raw)
	}
	return fn(ctx, session)
}
