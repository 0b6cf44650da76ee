package commands

import (
	"errors"
	"time"

	"carservice/internal/pkg/errs"
	"carservice/internal/pkg/guard"
)

const DefaultExpiryBatchSize = 100

var ErrExpirePendingOrdersCommandIsNotConstructed = errors.New(
	"ExpirePendingOrdersCommand must be created via NewExpirePendingOrdersCommand constructor",
)

// ExpirePendingOrdersCommand cancels requests that no mechanic accepted within olderThan.
type ExpirePendingOrdersCommand struct { //nolint:recvcheck //using for validation
	olderThan time.Duration
	batchSize int

	guard guard.ConstructorGuard
}

// NewExpirePendingOrdersCommand builds the command. A batchSize of zero selects
// DefaultExpiryBatchSize.
func NewExpirePendingOrdersCommand(olderThan time.Duration, batchSize int) (ExpirePendingOrdersCommand, error) {
	cmd := ExpirePendingOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOlderThan(olderThan),
		cmd.setBatchSize(batchSize),
	); err != nil {
		return ExpirePendingOrdersCommand{}, err
	}

	return cmd, nil
}

func (c ExpirePendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExpirePendingOrdersCommandIsNotConstructed)
}

func (c ExpirePendingOrdersCommand) OlderThan() time.Duration {
	return c.olderThan
}

func (c ExpirePendingOrdersCommand) BatchSize() int {
	return c.batchSize
}

func (c *ExpirePendingOrdersCommand) setOlderThan(d time.Duration) error {
	if d <= 0 {
		return errs.NewValueIsOutOfRangeError("older_than", d, "1ns", "unbounded")
	}
	c.olderThan = d
	return nil
}

func (c *ExpirePendingOrdersCommand) setBatchSize(n int) error {
	if n < 0 {
		return errs.NewValueIsOutOfRangeError("batch_size", n, 0, "unbounded")
	}
	if n == 0 {
		n = DefaultExpiryBatchSize
	}
	c.batchSize = n
	return nil
}
