package app

import "context"

// Validate loads and semantically checks a pack spec and its policy
// document without touching the metadata source.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	run, err := s.prepareRun(ctx, req.PackPath, req.PolicyPath)
	if err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{
		PackName:  run.pack.Name,
		RuleCount: len(run.doc.Rules),
	}, nil
}
