package ledger

import (
	"context"
	"reflect"
	"slices"
	"strings"

	"dario.cat/mergo"

	"github.com/moneyflow/ledger-engine/logging"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AddAccount creates an empty account.
func (p *Processor) AddAccount(ctx context.Context, name string) error {
	const op = "add-account"
	name = strings.TrimSpace(name)
	p.mu.Lock()
	defer p.mu.Unlock()

	if name == "" {
		return p.reject(op, invalid("name", "required"))
	}
	if p.state.HasAccount(name) {
		return p.reject(op, invalid("name", "account %q already exists", name))
	}
	next := p.state.Clone()
	next.Accounts[name] = Amount{}
	return p.commit(ctx, op, next, logging.F(logging.FieldAccount, name))
}

// RemoveAccount deletes an empty account. The default account, accounts
// holding money and the goal's linked account cannot be removed.
func (p *Processor) RemoveAccount(ctx context.Context, name string) error {
	const op = "remove-account"
	p.mu.Lock()
	defer p.mu.Unlock()

	balance, ok := p.state.Accounts[name]
	switch {
	case !ok:
		return p.reject(op, &NotFoundError{What: "account", Key: name})
	case name == DefaultAccount:
		return p.reject(op, invalid("name", "%s cannot be removed", DefaultAccount))
	case !balance.IsZero():
		return p.reject(op, invalid("name", "account %q still holds %s", name, balance))
	case p.state.Goal.LinkedAccount == name:
		return p.reject(op, invalid("name", "account %q is linked to the goal", name))
	}
	next := p.state.Clone()
	delete(next.Accounts, name)
	return p.commit(ctx, op, next, logging.F(logging.FieldAccount, name))
}

// =============================================================================
// PEOPLE & CATEGORIES
// =============================================================================

func (p *Processor) AddPerson(ctx context.Context, name string) error {
	const op = "add-person"
	name = strings.TrimSpace(name)
	p.mu.Lock()
	defer p.mu.Unlock()

	if name == "" {
		return p.reject(op, invalid("name", "required"))
	}
	if p.state.HasPerson(name) {
		return p.reject(op, invalid("name", "person %q already exists", name))
	}
	next := p.state.Clone()
	next.People = append(next.People, name)
	return p.commit(ctx, op, next, logging.F(logging.FieldPerson, name))
}

// RemovePerson deletes a person with nothing outstanding in either
// direction.
func (p *Processor) RemovePerson(ctx context.Context, name string) error {
	const op = "remove-person"
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.HasPerson(name) {
		return p.reject(op, &NotFoundError{What: "person", Key: name})
	}
	if _, owes := p.state.OwedToUser[name]; owes {
		return p.reject(op, invalid("name", "%s still owes you money", name))
	}
	if _, owed := p.state.OwedByUser[name]; owed {
		return p.reject(op, invalid("name", "you still owe %s money", name))
	}
	next := p.state.Clone()
	next.People = slices.DeleteFunc(next.People, func(s string) bool { return s == name })
	return p.commit(ctx, op, next, logging.F(logging.FieldPerson, name))
}

func (p *Processor) AddCategory(ctx context.Context, name string) error {
	const op = "add-category"
	name = strings.TrimSpace(name)
	p.mu.Lock()
	defer p.mu.Unlock()

	if name == "" {
		return p.reject(op, invalid("name", "required"))
	}
	if p.state.HasCategory(name) {
		return p.reject(op, invalid("name", "category %q already exists", name))
	}
	next := p.state.Clone()
	next.Categories = append(next.Categories, name)
	return p.commit(ctx, op, next)
}

// RemoveCategory drops a category from the list. Existing expenses keep
// their category.
func (p *Processor) RemoveCategory(ctx context.Context, name string) error {
	const op = "remove-category"
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.HasCategory(name) {
		return p.reject(op, &NotFoundError{What: "category", Key: name})
	}
	next := p.state.Clone()
	next.Categories = slices.DeleteFunc(next.Categories, func(s string) bool { return s == name })
	return p.commit(ctx, op, next)
}

// =============================================================================
// GOAL
// =============================================================================

// keepAmounts stops mergo from descending into Amount. Targets are
// applied from the patch pointer instead.
type keepAmounts struct{}

func (keepAmounts) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t == reflect.TypeOf(Amount{}) {
		return func(dst, src reflect.Value) error { return nil }
	}
	return nil
}

// SetGoal merges patch into the current goal.
func (p *Processor) SetGoal(ctx context.Context, patch GoalPatch) (Goal, error) {
	const op = "set-goal"
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := p.state.Goal
	src := Goal{
		Name:          strings.TrimSpace(patch.Name),
		LinkedAccount: strings.TrimSpace(patch.LinkedAccount),
	}
	if err := mergo.Merge(&merged, src, mergo.WithOverride, mergo.WithTransformers(keepAmounts{})); err != nil {
		return Goal{}, p.reject(op, invalid("goal", "%v", err))
	}
	if patch.Target != nil {
		merged.Target = *patch.Target
	}

	if err := checkAmount("target", merged.Target, false); err != nil {
		return Goal{}, p.reject(op, err)
	}
	if merged.Name == "" {
		return Goal{}, p.reject(op, invalid("name", "required"))
	}
	if !p.state.HasAccount(merged.LinkedAccount) {
		return Goal{}, p.reject(op, invalid("linkedAccount", "unknown account %q", merged.LinkedAccount))
	}

	next := p.state.Clone()
	next.Goal = merged
	if err := p.commit(ctx, op, next); err != nil {
		return Goal{}, err
	}
	return next.Goal, nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset replaces everything with the default state.
func (p *Processor) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commit(ctx, "reset", DefaultState())
}
