package CadDoc

// Kind 是DXF实体类型名（组码0的值）
type Kind string

const (
	KindLine      Kind = "LINE"
	KindPolyline  Kind = "LWPOLYLINE"
	KindCircle    Kind = "CIRCLE"
	KindArc       Kind = "ARC"
	KindText      Kind = "TEXT"
	KindMText     Kind = "MTEXT"
	KindSolid     Kind = "SOLID"
	KindHatch     Kind = "HATCH"
	KindInsert    Kind = "INSERT"
	KindDimension Kind = "DIMENSION"
)

type Point struct {
	X, Y float64
}

// Entity 是模型空间或块中的一个图元，只读
type Entity interface {
	Kind() Kind
	Layer() string
	Handle() string
}

// Base 所有实体共有的组码：5 句柄、8 图层、62 颜色、67 图纸空间
type Base struct {
	HandleID   string
	LayerName  string
	Color      Optional[int]
	PaperSpace bool
}

func (b *Base) Layer() string  { return b.LayerName }
func (b *Base) Handle() string { return b.HandleID }

type Line struct {
	Base
	Start, End Point
}

func (*Line) Kind() Kind { return KindLine }

// Polyline 同时承载 LWPOLYLINE 和 POLYLINE/VERTEX 序列
type Polyline struct {
	Base
	Points []Point
	Bulges []float64 // 与 Points 等长，0 表示直线段
	Closed bool
}

func (*Polyline) Kind() Kind { return KindPolyline }

type Circle struct {
	Base
	Center Point
	Radius float64
}

func (*Circle) Kind() Kind { return KindCircle }

// Arc 角度为度，逆时针
type Arc struct {
	Base
	Center     Point
	Radius     float64
	StartAngle float64
	EndAngle   float64
}

func (*Arc) Kind() Kind { return KindArc }

type Text struct {
	Base
	Insert   Point
	Height   float64
	Rotation float64
	Value    string
}

func (*Text) Kind() Kind { return KindText }

// MText 多行文字，Value 为原始内容（含格式控制符）
type MText struct {
	Base
	Insert     Point
	CharHeight Optional[float64]
	Width      Optional[float64]
	Rotation   float64
	Attachment int
	Value      string
}

func (*MText) Kind() Kind { return KindMText }

// Solid 四边形填充，Corners 已按绘制顺序排列
type Solid struct {
	Base
	Corners []Point
}

func (*Solid) Kind() Kind { return KindSolid }

type Hatch struct {
	Base
	Pattern    string
	SolidFill  bool
	Boundaries [][]Point
}

func (*Hatch) Kind() Kind { return KindHatch }

type Insert struct {
	Base
	BlockName string
	At        Point
	ScaleX    float64
	ScaleY    float64
	Rotation  float64
}

func (*Insert) Kind() Kind { return KindInsert }

// Dimension 标注实体；几何块里保存了渲染后的文字和箭头
type Dimension struct {
	Base
	GeometryBlock Optional[string]  // 组码 2
	Measurement   Optional[float64] // 组码 42
	Override      Optional[string]  // 组码 1
	DefPoint      Point
	TextMidPoint  Optional[Point]
	DimType       int
}

func (*Dimension) Kind() Kind { return KindDimension }
