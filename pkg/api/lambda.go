package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// LambdaRequest is the body of a function-URL scoring call. The problem is
// sent inline, so the function needs no workspace. Variant defaults to v1.
type LambdaRequest struct {
	Problem  json.RawMessage `json:"problem"`
	Solution json.RawMessage `json:"solution"`
	Variant  string          `json:"variant"`
}

// LambdaResponse is the judged score.
type LambdaResponse struct {
	Score   float64         `json:"score"`
	Variant problem.Variant `json:"variant"`
}

// LambdaHandler scores inline problems for an AWS Lambda function URL.
func LambdaHandler(runner *pipeline.Runner, maxBodyBytes int64) func(context.Context, events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 20
	}
	return func(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		body := []byte(event.Body)
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(event.Body)
			if err != nil {
				return lambdaError(errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid base64 body"))
			}
			body = decoded
		}
		if int64(len(body)) > maxBodyBytes {
			return lambdaResponse(http.StatusRequestEntityTooLarge,
				errorResponse{Error: "request body too large", Code: string(errors.ErrCodeInvalidInput)})
		}

		var req LambdaRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return lambdaError(errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid JSON"))
		}
		if len(req.Problem) == 0 || len(req.Solution) == 0 {
			return lambdaError(errors.New(errors.ErrCodeInvalidInput, "problem and solution are required"))
		}

		sreq := pipeline.ScoreRequest{Variant: problem.V1}
		if req.Variant != "" {
			v, err := problem.ParseVariant(req.Variant)
			if err != nil {
				return lambdaError(err)
			}
			sreq.Variant = v
		}
		var err error
		if sreq.Problem, err = problem.Read(bytes.NewReader(req.Problem)); err != nil {
			return lambdaError(err)
		}
		if sreq.Solution, err = problem.ReadSolution(bytes.NewReader(req.Solution)); err != nil {
			return lambdaError(err)
		}

		res, err := runner.Score(ctx, sreq)
		if err != nil {
			runner.Logger.Warn("lambda score failed", "error", err)
			return lambdaError(err)
		}
		return lambdaResponse(http.StatusOK, LambdaResponse{Score: res.Score, Variant: res.Variant})
	}
}

func lambdaError(err error) (events.LambdaFunctionURLResponse, error) {
	return lambdaResponse(errors.HTTPStatus(err), errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func lambdaResponse(status int, v any) (events.LambdaFunctionURLResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}
	return events.LambdaFunctionURLResponse{StatusCode: status, Headers: jsonHeader, Body: string(body)}, nil
}
