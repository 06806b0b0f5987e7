package suite

import (
	"os"
)

// UpdateExpected writes the output of the first backend as the golden file
// for every case that ran cleanly but did not match. It returns the paths
// it wrote.
func (s *Summary) UpdateExpected() ([]string, error) {
	var written []string
	if len(s.Backends) == 0 {
		return nil, nil
	}
	for i := 0; i < len(s.Results); i += len(s.Backends) {
		r := s.Results[i]
		if r.Status != Failed && r.Status != Unchecked {
			continue
		}
		path := r.Case.ExpectedPath()
		if err := os.WriteFile(path, []byte(r.Output), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
