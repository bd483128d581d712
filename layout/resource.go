package layout

// 媒体资源句柄：解码是异步的，在解码完成前自然尺寸未知。
// 句柄显式区分 Pending/Ready 两个状态，几何计算只读取当前状态，
// 状态迁移后由调用方重新触发几何计算。

// MediaState 是媒体资源句柄的状态。
type MediaState int

const (
	// MediaPending 表示资源尚未解码，自然尺寸未知。
	MediaPending MediaState = iota
	// MediaReady 表示自然尺寸已知。
	MediaReady
)

func (s MediaState) String() string {
	if s == MediaReady {
		return "ready"
	}
	return "pending"
}

// MediaResource 是带已知/未知自然尺寸的资源句柄。
// 自然尺寸以毫米保存（像素按声明 DPI 换算，见 PxToMM）。
type MediaResource struct {
	Src           string     `json:"src"`
	State         MediaState `json:"state"`
	NaturalWidth  float64    `json:"naturalWidth,omitempty"`
	NaturalHeight float64    `json:"naturalHeight,omitempty"`
}

// NewPendingMedia 返回未解码的资源句柄。
func NewPendingMedia(src string) *MediaResource {
	return &MediaResource{Src: src, State: MediaPending}
}

// ReadyMedia 返回自然尺寸已知的资源句柄（测试与同步解码路径使用）。
func ReadyMedia(src string, widthMM, heightMM float64) *MediaResource {
	return &MediaResource{Src: src, State: MediaReady, NaturalWidth: widthMM, NaturalHeight: heightMM}
}

// Resolve 将句柄迁移到 Ready 状态。重复 Resolve 以最后一次为准。
func (r *MediaResource) Resolve(widthMM, heightMM float64) {
	r.State = MediaReady
	r.NaturalWidth = widthMM
	r.NaturalHeight = heightMM
}

// Ready 报告自然尺寸是否可用。
func (r *MediaResource) Ready() bool { return r != nil && r.State == MediaReady }

// MediaProber 读取媒体资源的自然像素尺寸（不做完整解码）。
// canvas 渲染器基于 image.DecodeConfig 实现它。
type MediaProber interface {
	Probe(src string) (widthPx, heightPx int, err error)
}
