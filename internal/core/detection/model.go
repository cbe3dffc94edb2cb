package detection

import (
	"encoding/json"
	"fmt"
	"time"
)

// DetectionEvent 流水线写入的一条检测记录
type DetectionEvent struct {
	ID         int64     `json:"-"`
	DeviceName string    `json:"device_name"` // 摄像头名称
	ClassName  string    `json:"class_name"`  // 检测类别
	Confidence float64   `json:"confidence"`  // 置信度
	Timestamp  Timestamp `json:"timestamp"`   // 检测时间
	FramePath  string    `json:"frame_path"`  // 截图相对路径
}

// Timestamp 原样保留数据库中的时间
// 流水线写入 YYYYMMDD_HHMMSS_ms 文本，原生时间列按 RFC3339Nano 输出
type Timestamp string

var _ json.Marshaler = Timestamp("")

// Scan implements sql.Scanner
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
	case string:
		*t = Timestamp(v)
	case []byte:
		*t = Timestamp(v)
	case time.Time:
		*t = Timestamp(v.Format(time.RFC3339Nano))
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t Timestamp) String() string {
	return string(t)
}
