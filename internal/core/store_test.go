package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBatchBuilder(t *testing.T) {
	b := NewBatch().
		Set("a", "1", time.Minute).
		Del("b", "c").
		DelIfEqual("d", "sid-1")

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, BatchOp{Kind: OpSet, Key: "a", Value: "1", TTL: time.Minute}, b.Ops[0])
	assert.Equal(t, OpDel, b.Ops[1].Kind)
	assert.Equal(t, "c", b.Ops[2].Key)
	assert.Equal(t, []string{"d"}, b.Guarded())
}

func TestBatchGuardedEmpty(t *testing.T) {
	assert.Nil(t, NewBatch().Set("a", "1", 0).Guarded())
}
