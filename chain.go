package flexdb

import "context"

// Chain applies a sequence of writes, stopping at the first error.
// Each write still commits on its own; a failed chain is not rolled back.
//
//	err := db.Chain(ctx).
//		Insert(flexdb.Document{"x": 1}).
//		UpdateField(1, "x", 2).
//		Err()
type Chain struct {
	ctx context.Context
	db  *DB
	ids []int64
	err error
}

// Chain starts a chain of writes against db.
func (db *DB) Chain(ctx context.Context) *Chain {
	return &Chain{ctx: ctx, db: db}
}

// Insert stores doc unless an earlier step failed.
func (c *Chain) Insert(doc Document) *Chain {
	if c.err != nil {
		return c
	}
	id, err := c.db.Insert(c.ctx, doc)
	if err != nil {
		c.err = err
		return c
	}
	c.ids = append(c.ids, id)
	return c
}

// UpdateField sets a field unless an earlier step failed.
func (c *Chain) UpdateField(id int64, key string, value any) *Chain {
	if c.err != nil {
		return c
	}
	c.err = c.db.UpdateField(c.ctx, id, key, value)
	return c
}

// Delete removes a record unless an earlier step failed.
func (c *Chain) Delete(id int64) *Chain {
	if c.err != nil {
		return c
	}
	_, c.err = c.db.Delete(c.ctx, id)
	return c
}

// IDs returns the ids assigned by successful inserts, in order.
func (c *Chain) IDs() []int64 {
	return c.ids
}

// Err returns the first error, if any.
func (c *Chain) Err() error {
	return c.err
}
