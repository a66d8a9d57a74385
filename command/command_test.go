package command

import (
	"testing"
)

func TestPriorityOrdering(t *testing.T) {
	if PriorityLow >= PriorityNormal {
		t.Error("PriorityLow should be less than PriorityNormal")
	}

	if PriorityNormal >= PriorityHigh {
		t.Error("PriorityNormal should be less than PriorityHigh")
	}
}

func TestTaskTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		taskType TaskType
		expected string
	}{
		{"Rewrap", TaskTypeRewrap, "rewrap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.taskType) != tt.expected {
				t.Errorf("%s = %s; want %s", tt.name, string(tt.taskType), tt.expected)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		program  string
		args     []string
		expected string
	}{
		{
			name:     "Plain tokens",
			program:  "bmxtranswrap",
			args:     []string{"-t", "op1a", "--start", "26", "/media/A001C003.mxf"},
			expected: "bmxtranswrap -t op1a --start 26 /media/A001C003.mxf",
		},
		{
			name:     "Spaces",
			program:  "bmxtranswrap",
			args:     []string{"-o", "/out/My Clip.mxf", "/src/My Clip.mxf"},
			expected: "bmxtranswrap -o '/out/My Clip.mxf' '/src/My Clip.mxf'",
		},
		{
			name:     "Single quote",
			program:  "bmxtranswrap",
			args:     []string{"it's.mxf"},
			expected: `bmxtranswrap 'it'"'"'s.mxf'`,
		},
		{
			name:     "Windows program path",
			program:  `C:\tools\bmxtranswrap.exe`,
			args:     []string{"-t", "op1a"},
			expected: `'C:\tools\bmxtranswrap.exe' -t op1a`,
		},
		{
			name:     "Shell metacharacters",
			program:  "bmxtranswrap",
			args:     []string{"a;rm -rf $HOME", ""},
			expected: "bmxtranswrap 'a;rm -rf $HOME' ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.program, tt.args)
			if got != tt.expected {
				t.Errorf("Format() = %s; want %s", got, tt.expected)
			}
		})
	}
}
