package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/group-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ScheduleServiceDeps captures dependencies for constructing a schedule service.
type ScheduleServiceDeps struct {
	Schedules   application.ScheduleStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewScheduleService builds a schedule service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewScheduleServiceWithLogger(
		deps.Schedules,
		idGen,
		now,
		deps.Logger,
	)
}

// IdentityServiceDeps captures dependencies for constructing an identity
// service.
type IdentityServiceDeps struct {
	Schedules   application.ScheduleStore
	Bindings    application.BindingStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewIdentityService builds an identity service using the supplied dependencies.
func (f *ServiceFactory) NewIdentityService(deps IdentityServiceDeps) *application.IdentityService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewIdentityServiceWithLogger(
		deps.Schedules,
		deps.Bindings,
		idGen,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionStore
	IDGenerator    func() string
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		idGen,
		token,
		now,
		ttl,
		deps.Logger,
	)
}
