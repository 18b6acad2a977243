package stockroom

import (
	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         Operation
	children   []QueryNode
	components []TypeID
}

type query struct {
	root QueryNode
}

// identified is satisfied by AccessibleComponent, so query items can be component handles.
type identified interface {
	ID() TypeID
}

func newQuery() Query {
	return &query{}
}

func newCompositeNode(op Operation, components []TypeID) *compositeNode {
	return &compositeNode{
		op:         op,
		children:   make([]QueryNode, 0),
		components: components,
	}
}

// nodeMask builds the mask of the node's components at evaluation time. missing reports
// whether any component has no container in the storage yet, so no entity can carry it.
func (n *compositeNode) nodeMask(storage Storage) (m mask.Mask, missing bool) {
	for _, id := range n.components {
		bit, ok := storage.RowIndexFor(id)
		if !ok {
			missing = true
			continue
		}
		m.Mark(bit)
	}
	return m, missing
}

func (n *compositeNode) Evaluate(signature mask.Mask, storage Storage) bool {
	nodeMask, missing := n.nodeMask(storage)

	switch n.op {
	case OpAnd:
		if missing || !signature.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(signature, storage) {
				return false
			}
		}
		return true

	case OpOr:
		if signature.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(signature, storage) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(signature, storage) {
				return false
			}
		}
		return signature.ContainsNone(nodeMask)
	}
	return false
}

func (q *query) And(items ...interface{}) QueryNode {
	return q.node(OpAnd, items)
}

func (q *query) Or(items ...interface{}) QueryNode {
	return q.node(OpOr, items)
}

func (q *query) Not(items ...interface{}) QueryNode {
	return q.node(OpNot, items)
}

// node builds a composite node and makes it the query root. Arguments are built before the
// call that receives them, so for nested calls the outermost node ends up as the root.
func (q *query) node(op Operation, items []interface{}) QueryNode {
	components, children := q.processItems(items...)
	node := newCompositeNode(op, components)
	node.children = children
	q.root = node
	return node
}

func (q *query) processItems(items ...interface{}) ([]TypeID, []QueryNode) {
	components := make([]TypeID, 0)
	children := make([]QueryNode, 0)

	for _, item := range items {
		switch v := item.(type) {
		case TypeID:
			components = append(components, v)
		case []TypeID:
			components = append(components, v...)
		case identified:
			components = append(components, v.ID())
		case QueryNode:
			children = append(children, v)
		}
	}

	return components, children
}

func (q *query) Evaluate(signature mask.Mask, storage Storage) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(signature, storage)
}
