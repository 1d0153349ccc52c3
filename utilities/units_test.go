package utilities

import "testing"

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   uint64
		decimals int32
		want     string
	}{
		{name: "whole", amount: 2000000, decimals: 6, want: "2"},
		{name: "fraction", amount: 1500000, decimals: 6, want: "1.5"},
		{name: "dust", amount: 1, decimals: 6, want: "0.000001"},
		{name: "zero", amount: 0, decimals: 6, want: "0"},
		{name: "no decimals", amount: 42, decimals: 0, want: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUnits(tt.amount, tt.decimals); got != tt.want {
				t.Errorf("FormatUnits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    uint64
		wantErr bool
	}{
		{name: "fraction", value: "1.5", want: 1500000},
		{name: "whole", value: "3", want: 3000000},
		{name: "too precise", value: "0.0000001", wantErr: true},
		{name: "negative", value: "-1", wantErr: true},
		{name: "garbage", value: "ten", wantErr: true},
		{name: "overflow", value: "1e30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnits(tt.value, 6)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseUnits() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseUnits() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDBMultiValuePlaceholders(t *testing.T) {
	if got := DBMultiValuePlaceholders(3); got != "(?,?,?)" {
		t.Errorf("DBMultiValuePlaceholders() = %v", got)
	}
}
