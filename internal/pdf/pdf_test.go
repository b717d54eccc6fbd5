package pdf

import "testing"

func TestFindDOI(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "bare identifier",
			text: "Phys. Rev. Lett. 130, 011801\nDOI: 10.1103/PhysRevLett.130.011801\n",
			want: "10.1103/physrevlett.130.011801",
		},
		{
			name: "doi.org url",
			text: "Available at https://doi.org/10.1093/molbev/msaa123 (accessed 2024)",
			want: "10.1093/molbev/msaa123",
		},
		{
			name: "trailing punctuation stripped",
			text: "see 10.1038/s41586-020-2649-2, for details",
			want: "10.1038/s41586-020-2649-2",
		},
		{
			name: "first match wins",
			text: "10.1000/first then 10.1000/second",
			want: "10.1000/first",
		},
		{
			name: "no doi",
			text: "An article with no identifier at all.",
			want: "",
		},
		{
			name: "prefix without suffix ignored",
			text: "grant 10.1234/) awarded",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindDOI(tt.text); got != tt.want {
				t.Errorf("FindDOI(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
