package edit

import (
	"fmt"

	"resource-editor-server/internal/models"
)

// BlockOutcome is the result of applying one block operation to a working
// block list. Blocks carries the mutated list forward so later operations in
// the same batch see the effects of earlier ones.
type BlockOutcome struct {
	Blocks        []models.Block
	Status        string
	Message       string
	OriginalIndex *int
	NewIndex      *int
	AffectedKey   string
}

// ApplyBlockOperation applies a single structural operation to an ordered
// block list. Failures are per-operation, never fatal to a batch: the input
// list is returned unchanged alongside a failed status.
func ApplyBlockOperation(blocks []models.Block, op *BlocksOp) BlockOutcome {
	switch op.OperationType {
	case BlockUpdate:
		return applyBlockUpdate(blocks, op)
	case BlockInsert:
		return applyBlockInsert(blocks, op)
	case BlockDelete:
		return applyBlockDelete(blocks, op)
	case BlockMove:
		return applyBlockMove(blocks, op)
	default:
		return BlockOutcome{Blocks: blocks, Status: StatusFailed,
			Message: fmt.Sprintf("unknown block operation '%s'", op.OperationType)}
	}
}

// resolveSelector turns an index/key selector pair into a concrete position.
// A numeric index takes precedence over a key. Returns -1 when unresolved.
func resolveSelector(blocks []models.Block, index *int, key string) int {
	if index != nil {
		if *index >= 0 && *index < len(blocks) {
			return *index
		}
		return -1
	}
	if key != "" {
		for i := range blocks {
			if blocks[i].Key == key {
				return i
			}
		}
	}
	return -1
}

func applyBlockUpdate(blocks []models.Block, op *BlocksOp) BlockOutcome {
	idx := resolveSelector(blocks, op.Index, op.Key)
	if idx < 0 {
		return blockNotFound(blocks)
	}
	if op.Content == nil {
		return BlockOutcome{Blocks: blocks, Status: StatusFailed, Message: "update requires replacement content"}
	}
	next := make([]models.Block, len(blocks))
	copy(next, blocks)
	next[idx] = *op.Content
	return BlockOutcome{
		Blocks:        next,
		Status:        StatusSuccess,
		Message:       fmt.Sprintf("updated block at index %d", idx),
		OriginalIndex: intPtr(idx),
		NewIndex:      intPtr(idx),
		AffectedKey:   op.Content.Key,
	}
}

func applyBlockInsert(blocks []models.Block, op *BlocksOp) BlockOutcome {
	if op.Block == nil {
		return BlockOutcome{Blocks: blocks, Status: StatusFailed, Message: "insert requires a block"}
	}
	pos := len(blocks)
	if op.Position != nil {
		pos = *op.Position
	}
	if pos < 0 || pos > len(blocks) {
		return BlockOutcome{Blocks: blocks, Status: StatusFailed,
			Message: fmt.Sprintf("insert position %d is out of range [0, %d]", pos, len(blocks))}
	}
	next := make([]models.Block, 0, len(blocks)+1)
	next = append(next, blocks[:pos]...)
	next = append(next, *op.Block)
	next = append(next, blocks[pos:]...)
	return BlockOutcome{
		Blocks:      next,
		Status:      StatusSuccess,
		Message:     fmt.Sprintf("inserted block at index %d", pos),
		NewIndex:    intPtr(pos),
		AffectedKey: op.Block.Key,
	}
}

func applyBlockDelete(blocks []models.Block, op *BlocksOp) BlockOutcome {
	idx := resolveSelector(blocks, op.Index, op.Key)
	if idx < 0 {
		return blockNotFound(blocks)
	}
	removed := blocks[idx]
	next := make([]models.Block, 0, len(blocks)-1)
	next = append(next, blocks[:idx]...)
	next = append(next, blocks[idx+1:]...)
	return BlockOutcome{
		Blocks:        next,
		Status:        StatusSuccess,
		Message:       fmt.Sprintf("deleted block at index %d", idx),
		OriginalIndex: intPtr(idx),
		AffectedKey:   removed.Key,
	}
}

func applyBlockMove(blocks []models.Block, op *BlocksOp) BlockOutcome {
	from := resolveSelector(blocks, op.From, op.FromKey)
	if from < 0 {
		return blockNotFound(blocks)
	}
	var to int
	switch {
	case op.To != nil:
		to = *op.To
	case op.ToPosition != nil:
		to = *op.ToPosition
	default:
		return BlockOutcome{Blocks: blocks, Status: StatusFailed, Message: "move requires a target position"}
	}
	if to < 0 || to > len(blocks) {
		return BlockOutcome{Blocks: blocks, Status: StatusFailed,
			Message: fmt.Sprintf("move target %d is out of range [0, %d]", to, len(blocks))}
	}
	// A no-op move is a failure: it almost always indicates a caller mistake.
	if from == to {
		return BlockOutcome{Blocks: blocks, Status: StatusFailed,
			Message: fmt.Sprintf("move source %d equals target %d", from, to)}
	}

	moved := blocks[from]
	next := make([]models.Block, 0, len(blocks))
	next = append(next, blocks[:from]...)
	next = append(next, blocks[from+1:]...)
	// The list shrank by one; a target past the source shifts down.
	insertAt := to
	if to > from {
		insertAt = to - 1
	}
	next = append(next[:insertAt], append([]models.Block{moved}, next[insertAt:]...)...)
	return BlockOutcome{
		Blocks:        next,
		Status:        StatusSuccess,
		Message:       fmt.Sprintf("moved block from index %d to index %d", from, insertAt),
		OriginalIndex: intPtr(from),
		NewIndex:      intPtr(insertAt),
		AffectedKey:   moved.Key,
	}
}

func blockNotFound(blocks []models.Block) BlockOutcome {
	return BlockOutcome{Blocks: blocks, Status: StatusFailed, Message: "Block not found"}
}

func intPtr(v int) *int { return &v }
