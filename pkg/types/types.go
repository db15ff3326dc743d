package types

import "encoding/json"

// CheckpointSection は、計測テーブルの1行（1つの計測地点の記録）を保持します。
// 4つのフィールドはすべて表示文字列のまま保持し、秒数への変換は行いません。
type CheckpointSection struct {
	Section   string `json:"section"`    // 区間ラベル（例: "5K", "도착"）
	PassTime  string `json:"pass_time"`  // 通過時刻（壁時計）
	SplitTime string `json:"split_time"` // 区間タイム
	TotalTime string `json:"total_time"` // 累積タイム
}

// ParticipantRecord は、1人の参加者に対するスクレイピング結果です。
// Error が空でない場合は失敗レコードであり、Sections は持ちません。
// RunnerID は成功・失敗を問わず必ず呼び出し側の要求IDが刻印されます。
type ParticipantRecord struct {
	RunnerID  int
	Name      string
	Gender    string
	BibNo     string
	EventName string
	Sections  []CheckpointSection
	Error     string
}

// Failed は、このレコードが失敗レコードかどうかを返します。
func (r ParticipantRecord) Failed() bool {
	return r.Error != ""
}

// MarshalJSON は、成功レコードと失敗レコードで異なるJSON形状を出力します。
// 成功時は sections キーを必ず含み（空配列を含む）、失敗時は
// {runner_id, error} のみを出力して sections キーを含めません。
func (r ParticipantRecord) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			RunnerID int    `json:"runner_id"`
			Error    string `json:"error"`
		}{
			RunnerID: r.RunnerID,
			Error:    r.Error,
		})
	}

	sections := r.Sections
	if sections == nil {
		sections = []CheckpointSection{}
	}

	return json.Marshal(struct {
		RunnerID  int                 `json:"runner_id"`
		Name      string              `json:"name"`
		Gender    string              `json:"gender"`
		BibNo     string              `json:"bib_no"`
		EventName string              `json:"event_name"`
		Sections  []CheckpointSection `json:"sections"`
	}{
		RunnerID:  r.RunnerID,
		Name:      r.Name,
		Gender:    r.Gender,
		BibNo:     r.BibNo,
		EventName: r.EventName,
		Sections:  sections,
	})
}

// NewErrorRecord は、指定された参加者IDに対する失敗レコードを作成します。
func NewErrorRecord(runnerID int, message string) ParticipantRecord {
	return ParticipantRecord{
		RunnerID: runnerID,
		Error:    message,
	}
}
