package jsast

// ScopeID indexes a frame in a Scopes arena.
type ScopeID int32

// NoScope is the parent of the program frame.
const NoScope ScopeID = -1

// Frame is one lexical scope. Frames are immutable once built and only
// reference their parent by index.
type Frame struct {
	Parent   ScopeID
	Node     Node
	Function bool
	decls    map[string]*Identifier
}

// Declared returns the binding identifier for name declared directly in
// this frame.
func (f *Frame) Declared(name string) (*Identifier, bool) {
	id, ok := f.decls[name]
	return id, ok
}

// Scopes is an arena of parent-linked frames for one program. Declarations
// are visible throughout their frame (hoisted), which is enough to decide
// whether a name is shadowed.
type Scopes struct {
	frames []Frame
	owner  map[Node]ScopeID
}

// BuildScopes computes the frames of a linked program.
func BuildScopes(p *Program) *Scopes {
	s := &Scopes{owner: make(map[Node]ScopeID)}
	if p == nil {
		return s
	}
	root := s.newFrame(NoScope, p, true)
	for _, stmt := range p.Body {
		s.walk(stmt, root)
	}
	return s
}

func (s *Scopes) newFrame(parent ScopeID, owner Node, function bool) ScopeID {
	id := ScopeID(len(s.frames))
	s.frames = append(s.frames, Frame{
		Parent:   parent,
		Node:     owner,
		Function: function,
		decls:    make(map[string]*Identifier),
	})
	s.owner[owner] = id
	return id
}

func (s *Scopes) declare(id ScopeID, ident *Identifier) {
	if ident == nil || ident.Name == "" {
		return
	}
	if _, exists := s.frames[id].decls[ident.Name]; !exists {
		s.frames[id].decls[ident.Name] = ident
	}
}

// declarePattern binds every identifier introduced by a binding pattern.
func (s *Scopes) declarePattern(id ScopeID, pattern Node) {
	switch p := pattern.(type) {
	case *Identifier:
		s.declare(id, p)
	case *ObjectPattern:
		for _, prop := range p.Properties {
			switch prop := prop.(type) {
			case *Property:
				s.declarePattern(id, prop.Value)
			case *RestElement:
				s.declarePattern(id, prop.Argument)
			}
		}
	case *ArrayPattern:
		for _, el := range p.Elements {
			if el != nil {
				s.declarePattern(id, el)
			}
		}
	case *RestElement:
		s.declarePattern(id, p.Argument)
	case *AssignmentPattern:
		s.declarePattern(id, p.Left)
	}
}

func (s *Scopes) nearestFunction(id ScopeID) ScopeID {
	for id != NoScope && !s.frames[id].Function {
		id = s.frames[id].Parent
	}
	return id
}

func (s *Scopes) walk(n Node, cur ScopeID) {
	if isNil(n) {
		return
	}
	switch n := n.(type) {
	case *Function:
		if n.Declaration && n.ID != nil {
			s.declare(cur, n.ID)
		}
		fn := s.newFrame(cur, n, true)
		if !n.Declaration && n.ID != nil {
			s.declare(fn, n.ID)
		}
		for _, p := range n.Params {
			s.declarePattern(fn, p)
			s.walk(p, fn)
		}
		// The body block shares the function frame.
		if body, ok := n.Body.(*Block); ok && body != nil {
			s.owner[body] = fn
			for _, stmt := range body.Body {
				s.walk(stmt, fn)
			}
			return
		}
		s.walk(n.Body, fn)
		return

	case *Block:
		blk := s.newFrame(cur, n, false)
		for _, stmt := range n.Body {
			s.walk(stmt, blk)
		}
		return

	case *VariableDeclaration:
		target := cur
		if n.DeclKind == "var" {
			target = s.nearestFunction(cur)
		}
		for _, d := range n.Declarations {
			if d != nil {
				s.declarePattern(target, d.ID)
			}
		}

	case *Class:
		if !n.Expression && n.ID != nil {
			s.declare(cur, n.ID)
		}

	case *ImportDeclaration:
		for _, local := range n.Locals {
			s.declare(cur, local)
		}
	}

	for _, c := range Children(n) {
		s.walk(c, cur)
	}
}

// Enclosing returns the innermost frame containing n. The tree must be
// linked.
func (s *Scopes) Enclosing(n Node) ScopeID {
	for cur := n; !isNil(cur); cur = cur.Parent() {
		if id, ok := s.owner[cur]; ok {
			return id
		}
	}
	if len(s.frames) > 0 {
		return 0
	}
	return NoScope
}

// Frame returns the frame with the given id.
func (s *Scopes) Frame(id ScopeID) *Frame {
	if id < 0 || int(id) >= len(s.frames) {
		return nil
	}
	return &s.frames[id]
}

// Lookup resolves name as seen from n by walking the frame chain outward.
func (s *Scopes) Lookup(from Node, name string) (*Identifier, bool) {
	for id := s.Enclosing(from); id != NoScope; id = s.frames[id].Parent {
		if decl, ok := s.frames[id].decls[name]; ok {
			return decl, true
		}
	}
	return nil, false
}

// IsDeclared reports whether any enclosing frame declares name.
func (s *Scopes) IsDeclared(from Node, name string) bool {
	_, ok := s.Lookup(from, name)
	return ok
}
