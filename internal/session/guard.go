// session реализует гард админки: классификацию путей, хранение пары токенов
// в cookie и конечный автомат проверки/обновления сессии на каждый запрос.
//
// Автомат чистый относительно HTTP: Evaluate не пишет cookie сам, а возвращает
// Decision с мутацией (None/Set/Clear), которую применяет HTTP-адаптер.
// Guard не хранит состояние запроса и безопасен для конкурентного использования.
package session

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/models"
)

// State - состояние автомата гарда.
type State int

const (
	StateUnprotected State = iota
	StateNoCredentials
	StateVerifying
	StateValid
	StateRefreshing
	StateRefreshFailed
	StateAuthenticated
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnprotected:
		return "unprotected"
	case StateNoCredentials:
		return "no_credentials"
	case StateVerifying:
		return "verifying"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	case StateRefreshFailed:
		return "refresh_failed"
	case StateAuthenticated:
		return "authenticated"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// terminal - состояния, из которых автомат не выходит.
func (s State) terminal() bool {
	return s == StateUnprotected || s == StateAuthenticated || s == StateDenied
}

// Outcome - итог проверки запроса.
type Outcome int

const (
	OutcomeProceed Outcome = iota
	OutcomeDeny
)

func (o Outcome) String() string {
	if o == OutcomeDeny {
		return "deny"
	}

	return "proceed"
}

// Decision - результат Evaluate.
//   - Principal задан только для OutcomeProceed на защищённом пути;
//   - Reason - причина из таксономии ошибок (для логов/метрик), наружу не отдаётся;
//   - Trace - пройденные состояния в порядке посещения.
type Decision struct {
	Outcome   Outcome
	Principal *models.Principal
	Mutation  Mutation
	State     State
	Reason    error
	Trace     []State
}

// Verifier - часть клиента провайдера, которая нужна гарду.
type Verifier interface {
	GetUser(ctx context.Context, accessToken string) (*models.Principal, error)
	RefreshSession(ctx context.Context, refreshToken string) (*identity.Session, error)
}

// Guard - автомат проверки сессии.
type Guard struct {
	routes   Routes
	verifier Verifier
}

// NewGuard создаёт гард для заданного классификатора путей и провайдера.
func NewGuard(routes Routes, verifier Verifier) *Guard {
	return &Guard{routes: routes, verifier: verifier}
}

// evaluation - рабочее состояние одного прогона автомата.
type evaluation struct {
	path      string
	creds     models.CredentialPair
	state     State
	principal *models.Principal
	mutation  Mutation
	reason    error
	trace     []State
}

// maxSteps ограничивает прогон: самый длинный путь
// Verifying → Refreshing → RefreshFailed → Denied.
const maxSteps = 8

// Evaluate проверяет запрос к path с парой токенов из cookie.
// Провайдер вызывается не более двух раз: GetUser, затем при неудаче RefreshSession.
func (g *Guard) Evaluate(ctx context.Context, path string, creds models.CredentialPair) Decision {
	ev := &evaluation{
		path:     path,
		creds:    creds,
		mutation: NoMutation(),
	}

	ev.enter(g.classify(ev))

	for steps := 0; !ev.state.terminal(); steps++ {
		if steps >= maxSteps {
			ev.reason = fmt.Errorf("%w: guard did not settle in state %s", ErrRefreshFailed, ev.state)
			ev.mutation = ClearPair()
			ev.enter(StateDenied)
			break
		}

		ev.enter(g.step(ctx, ev))
	}

	d := Decision{
		State:    ev.state,
		Mutation: ev.mutation,
		Reason:   ev.reason,
		Trace:    ev.trace,
	}

	switch ev.state {
	case StateDenied:
		d.Outcome = OutcomeDeny
	case StateAuthenticated:
		d.Outcome = OutcomeProceed
		d.Principal = ev.principal
	default:
		d.Outcome = OutcomeProceed
	}

	return d
}

func (ev *evaluation) enter(s State) {
	ev.state = s
	ev.trace = append(ev.trace, s)
}

// step - диспетчер: по одной функции перехода на каждое нетерминальное состояние.
func (g *Guard) step(ctx context.Context, ev *evaluation) State {
	switch ev.state {
	case StateNoCredentials:
		return g.onNoCredentials(ev)
	case StateVerifying:
		return g.onVerifying(ctx, ev)
	case StateValid:
		return g.onValid(ev)
	case StateRefreshing:
		return g.onRefreshing(ctx, ev)
	case StateRefreshFailed:
		return g.onRefreshFailed(ev)
	default:
		ev.reason = fmt.Errorf("%w: unexpected state %s", ErrRefreshFailed, ev.state)
		ev.mutation = ClearPair()
		return StateDenied
	}
}

// classify - вход в автомат: незащищённый путь или чтение пары.
func (g *Guard) classify(ev *evaluation) State {
	if !g.routes.IsProtected(ev.path) {
		return StateUnprotected
	}

	if !ev.creds.Complete() {
		return StateNoCredentials
	}

	return StateVerifying
}

// onNoCredentials: неполная пара не аутентифицирует, cookie не трогаем.
func (g *Guard) onNoCredentials(ev *evaluation) State {
	ev.reason = ErrNotAuthenticated
	return StateDenied
}

// onVerifying: любая неудача GetUser (истечение, подпись, транспорт) ведёт в refresh.
func (g *Guard) onVerifying(ctx context.Context, ev *evaluation) State {
	p, err := g.verifier.GetUser(ctx, ev.creds.AccessToken)
	if err != nil || p == nil {
		ev.reason = ErrCredentialInvalid
		return StateRefreshing
	}

	ev.principal = p
	return StateValid
}

func (g *Guard) onValid(ev *evaluation) State {
	ev.reason = nil
	return StateAuthenticated
}

// onRefreshing: успешный refresh обязан вернуть пользователя и полную пару.
func (g *Guard) onRefreshing(ctx context.Context, ev *evaluation) State {
	s, err := g.verifier.RefreshSession(ctx, ev.creds.RefreshToken)
	switch {
	case err != nil:
		ev.reason = fmt.Errorf("%w: %w", ErrRefreshFailed, providerCause(err))
		return StateRefreshFailed
	case s == nil || s.User == nil || !s.Pair.Complete():
		ev.reason = fmt.Errorf("%w: provider returned no usable session", ErrRefreshFailed)
		return StateRefreshFailed
	}

	ev.principal = s.User
	ev.mutation = SetPair(s.Pair)
	ev.reason = nil
	return StateAuthenticated
}

// onRefreshFailed: сессия не восстановима, обе cookie удаляются.
func (g *Guard) onRefreshFailed(ev *evaluation) State {
	ev.principal = nil
	ev.mutation = ClearPair()
	return StateDenied
}

// providerCause отделяет отказ провайдера от транспортной ошибки.
func providerCause(err error) error {
	if identity.IsProviderRejection(err) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrProviderError, err)
}
