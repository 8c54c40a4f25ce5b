package tracking

import (
	"context"
	"fmt"
)

// Track starts src with req and feeds its fixes into the session until the
// stream closes, ctx is done or the session stops.
func (s *Session) Track(ctx context.Context, src FixSource, req LocationRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("location request: %w", err)
	}
	fixes, err := src.Start(ctx, req)
	if err != nil {
		return fmt.Errorf("starting fix source: %w", err)
	}
	return s.ConsumeFixes(ctx, fixes)
}

// ConsumeFixes forwards fixes until the channel closes, ctx is done or the
// session stops.
func (s *Session) ConsumeFixes(ctx context.Context, fixes <-chan LocationFix) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix, ok := <-fixes:
			if !ok {
				return nil
			}
			if err := s.OnFix(fix); err != nil {
				return err
			}
		}
	}
}

// ConsumeAmbient forwards lux readings until the channel closes, ctx is done
// or the session stops.
func (s *Session) ConsumeAmbient(ctx context.Context, readings <-chan float64) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case lux, ok := <-readings:
			if !ok {
				return nil
			}
			if err := s.OnAmbientReading(lux); err != nil {
				return err
			}
		}
	}
}
