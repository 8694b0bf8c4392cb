// Package scene implements a read-only snapshot of the simulated
// entities in a batch of parallel environments. Every batched quantity
// in a snapshot has the number of parallel environments as its leading
// (row) dimension.
package scene

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoEntity is returned when looking up a name that is not
	// registered in a Snapshot
	ErrNoEntity = errors.New("no such entity")

	// ErrEntityKind is returned when an entity exists but is not of
	// the requested kind
	ErrEntityKind = errors.New("wrong entity kind")

	// ErrBatchSize is returned when an entity's batch dimension does
	// not match the number of environments of a Snapshot
	ErrBatchSize = errors.New("batch size mismatch")

	// ErrNoJoint is returned when a joint name expression matches no
	// joint of an Articulation
	ErrNoJoint = errors.New("no matching joint")
)

// Entity is a simulated entity which can be stored in a Snapshot
type Entity interface {
	// NumEnvs returns the batch dimension of the entity's data
	NumEnvs() int
}

// EntityCfg refers to an entity in a Snapshot by name
type EntityCfg struct {
	Name string `json:"name"`
}

// NewEntityCfg returns a new EntityCfg referring to name
func NewEntityCfg(name string) EntityCfg {
	return EntityCfg{Name: name}
}

// Snapshot is a name-indexed view of all entities in a batch of
// parallel environments for a single simulation step.
type Snapshot struct {
	numEnvs  int
	entities map[string]Entity
}

// New returns a new, empty Snapshot for numEnvs parallel environments
func New(numEnvs int) *Snapshot {
	if numEnvs <= 0 {
		panic(fmt.Sprintf("new: number of environments must be positive, "+
			"have(%v)", numEnvs))
	}
	return &Snapshot{
		numEnvs:  numEnvs,
		entities: make(map[string]Entity),
	}
}

// NumEnvs returns the number of parallel environments
func (s *Snapshot) NumEnvs() int {
	return s.numEnvs
}

// Add registers an entity under name, replacing any entity previously
// registered under the same name.
func (s *Snapshot) Add(name string, e Entity) error {
	if e.NumEnvs() != s.numEnvs {
		return fmt.Errorf("add: entity %q: %w \n\thave(%v) \n\twant(%v)",
			name, ErrBatchSize, e.NumEnvs(), s.numEnvs)
	}
	s.entities[name] = e
	return nil
}

// Names returns the sorted names of all entities in the Snapshot
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.entities))
	for name := range s.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entity returns the entity registered under name
func (s *Snapshot) Entity(name string) (Entity, error) {
	e, ok := s.entities[name]
	if !ok {
		return nil, fmt.Errorf("entity: %q: %w", name, ErrNoEntity)
	}
	return e, nil
}

// RigidObject returns the rigid object referred to by cfg
func (s *Snapshot) RigidObject(cfg EntityCfg) (*RigidObject, error) {
	e, err := s.Entity(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("rigidObject: %w", err)
	}
	r, ok := e.(*RigidObject)
	if !ok {
		return nil, fmt.Errorf("rigidObject: %q is %T: %w", cfg.Name, e,
			ErrEntityKind)
	}
	return r, nil
}

// FrameTransformer returns the frame transformer referred to by cfg
func (s *Snapshot) FrameTransformer(cfg EntityCfg) (*FrameTransformer,
	error) {
	e, err := s.Entity(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("frameTransformer: %w", err)
	}
	f, ok := e.(*FrameTransformer)
	if !ok {
		return nil, fmt.Errorf("frameTransformer: %q is %T: %w", cfg.Name, e,
			ErrEntityKind)
	}
	return f, nil
}

// Articulation returns the articulation referred to by cfg
func (s *Snapshot) Articulation(cfg EntityCfg) (*Articulation, error) {
	e, err := s.Entity(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("articulation: %w", err)
	}
	a, ok := e.(*Articulation)
	if !ok {
		return nil, fmt.Errorf("articulation: %q is %T: %w", cfg.Name, e,
			ErrEntityKind)
	}
	return a, nil
}

// RigidObject is a free body. RootPosW holds the world frame position
// of the body's root frame, one (x, y, z) row per environment.
type RigidObject struct {
	RootPosW *mat.Dense
}

// NewRigidObject returns a new RigidObject. The argument positions
// must have 3 columns.
func NewRigidObject(positions *mat.Dense) *RigidObject {
	checkPositions("newRigidObject", positions)
	return &RigidObject{RootPosW: positions}
}

// NumEnvs returns the number of environments the object is batched over
func (r *RigidObject) NumEnvs() int {
	rows, _ := r.RootPosW.Dims()
	return rows
}

// FrameTransformer tracks a number of named target frames relative to
// a source frame. TargetPosW[i] holds the world frame position of
// target frame i, one (x, y, z) row per environment.
type FrameTransformer struct {
	TargetNames []string
	TargetPosW  []*mat.Dense
}

// NewFrameTransformer returns a new FrameTransformer tracking the
// named targets. Each position matrix must have 3 columns and all must
// have the same number of rows.
func NewFrameTransformer(names []string,
	positions []*mat.Dense) *FrameTransformer {
	if len(names) != len(positions) || len(names) == 0 {
		panic(fmt.Sprintf("newFrameTransformer: need one position batch "+
			"per target \n\thave(%v) \n\twant(%v)", len(positions),
			len(names)))
	}
	rows, _ := positions[0].Dims()
	for _, p := range positions {
		checkPositions("newFrameTransformer", p)
		if r, _ := p.Dims(); r != rows {
			panic(fmt.Sprintf("newFrameTransformer: inconsistent batch "+
				"sizes %v and %v", r, rows))
		}
	}
	return &FrameTransformer{TargetNames: names, TargetPosW: positions}
}

// NumEnvs returns the number of environments the frames are batched over
func (f *FrameTransformer) NumEnvs() int {
	rows, _ := f.TargetPosW[0].Dims()
	return rows
}

// Articulation is a multi-joint mechanism. JointPos holds the position
// of each joint, one row per environment and one column per joint in
// the order given by JointNames.
type Articulation struct {
	JointNames []string
	JointPos   *mat.Dense
}

// NewArticulation returns a new Articulation
func NewArticulation(jointNames []string,
	jointPos *mat.Dense) *Articulation {
	if _, c := jointPos.Dims(); c != len(jointNames) {
		panic(fmt.Sprintf("newArticulation: joint positions should have "+
			"one column per joint \n\thave(%v) \n\twant(%v)", c,
			len(jointNames)))
	}
	return &Articulation{JointNames: jointNames, JointPos: jointPos}
}

// NumEnvs returns the number of environments the articulation is
// batched over
func (a *Articulation) NumEnvs() int {
	rows, _ := a.JointPos.Dims()
	return rows
}

// FindJoints resolves joint name expressions to joint indices. Each
// expression is a regular expression which must match a whole joint
// name. Indices and names are returned in joint order. An expression
// matching no joint is an error.
func (a *Articulation) FindJoints(exprs []string) ([]int, []string,
	error) {
	matched := make([]bool, len(a.JointNames))
	for _, expr := range exprs {
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, nil, fmt.Errorf("findJoints: %v", err)
		}

		found := false
		for i, name := range a.JointNames {
			if re.MatchString(name) {
				matched[i] = true
				found = true
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("findJoints: %q: %w", expr,
				ErrNoJoint)
		}
	}

	var ids []int
	var names []string
	for i, ok := range matched {
		if ok {
			ids = append(ids, i)
			names = append(names, a.JointNames[i])
		}
	}
	return ids, names, nil
}

// JointColumn returns the positions of joint id across all environments
func (a *Articulation) JointColumn(id int) []float64 {
	return mat.Col(nil, id, a.JointPos)
}

func checkPositions(fn string, positions *mat.Dense) {
	if _, c := positions.Dims(); c != 3 {
		panic(fmt.Sprintf("%v: positions should have 3 columns "+
			"\n\thave(%v) \n\twant(3)", fn, c))
	}
}
