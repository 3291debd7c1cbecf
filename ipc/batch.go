package ipc

import "github.com/nstehr/striker/model"

type batchKey struct {
	robot int
	kind  model.CommandKind
}

// CommandBatch collects the commands issued during one tick. For each
// robot and command kind only the last write is kept, at the position of
// the first write. It is not safe for concurrent use; a batch belongs to
// the goroutine that ticks the behavior tree.
type CommandBatch struct {
	order []batchKey
	cmds  map[batchKey]model.Command
}

func NewCommandBatch() *CommandBatch {
	return &CommandBatch{cmds: make(map[batchKey]model.Command)}
}

// Send implements model.CommandSink.
func (b *CommandBatch) Send(cmd model.Command) {
	k := batchKey{robot: cmd.RobotID, kind: cmd.Kind}
	if _, ok := b.cmds[k]; !ok {
		b.order = append(b.order, k)
	}
	b.cmds[k] = cmd
}

func (b *CommandBatch) Len() int { return len(b.order) }

// Flush returns the pending commands and empties the batch.
func (b *CommandBatch) Flush() []model.Command {
	out := make([]model.Command, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.cmds[k])
	}
	b.order = b.order[:0]
	clear(b.cmds)
	return out
}
