package store

import (
	"testing"

	"remindd/internal/schedule"
)

func TestScheduleCodec(t *testing.T) {
	t.Parallel()
	at := &schedule.TimeOfDay{Hour: 18, Minute: 30}

	tests := []struct {
		name string
		s    schedule.Schedule
		cols scheduleColumns
	}{
		{
			name: "daily default time",
			s:    schedule.Daily{},
			cols: scheduleColumns{Kind: "daily"},
		},
		{
			name: "weekly",
			s:    schedule.Weekly{Time: at, Days: []schedule.Weekday{schedule.Monday, schedule.Friday}},
			cols: scheduleColumns{Kind: "weekly", TriggerTime: "18:30", DaysOfWeek: "0,4"},
		},
		{
			name: "monthly",
			s:    schedule.Monthly{Time: at, Days: []int{1, 15}},
			cols: scheduleColumns{Kind: "monthly", TriggerTime: "18:30", DaysOfMonth: "1,15"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cols, err := encodeSchedule(tt.s)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if cols != tt.cols {
				t.Fatalf("encode = %+v, want %+v", cols, tt.cols)
			}
			back, err := decodeSchedule(cols)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if schedule.Describe(back) != schedule.Describe(tt.s) {
				t.Fatalf("round trip changed schedule: %q vs %q",
					schedule.Describe(back), schedule.Describe(tt.s))
			}
		})
	}
}

func TestDecodeScheduleBadInput(t *testing.T) {
	t.Parallel()
	if _, err := decodeSchedule(scheduleColumns{Kind: "fortnightly"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := decodeSchedule(scheduleColumns{Kind: "weekly", DaysOfWeek: "0,x"}); err == nil {
		t.Fatal("expected error for malformed day list")
	}
	if _, err := decodeSchedule(scheduleColumns{Kind: "daily", TriggerTime: "25:00"}); err == nil {
		t.Fatal("expected error for invalid trigger time")
	}
	if _, err := encodeSchedule(nil); err == nil {
		t.Fatal("expected error encoding nil schedule")
	}
}
