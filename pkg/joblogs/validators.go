package joblogs

type ListJobLogsQuery struct {
	AfterID *int     `query:"after_id" json:"after_id,omitempty" validate:"omitempty,min=0"`
	BookID  *int     `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	Level   []string `query:"level" json:"level,omitempty" validate:"dive,oneof=info warn error"`
	Limit   int      `query:"limit" json:"limit,omitempty" default:"500" validate:"min=1,max=5000"`
}
