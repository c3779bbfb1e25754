package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/pwharness/pkg/apiclient"
	"github.com/entrhq/pwharness/pkg/transport"
	"github.com/spf13/cobra"
)

func newRequestCommand(a *app) *cobra.Command {
	var (
		withToken bool
		data      string
		query     []string
		header    []string
	)

	cmd := &cobra.Command{
		Use:   "request METHOD ENDPOINT",
		Short: "Send an API request, optionally with the bearer token",
		Example: `  pwharness request GET /users --token
  pwharness request POST /users -d '{"name":"ada"}' -H X-Trace=1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			endpoint := args[1]

			var body any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return fmt.Errorf("--data is not valid JSON: %w", err)
				}
			}
			q, err := parsePairs(query)
			if err != nil {
				return fmt.Errorf("--query: %w", err)
			}
			h, err := parsePairs(header)
			if err != nil {
				return fmt.Errorf("--header: %w", err)
			}
			headers := make(map[string]string, len(h))
			for k := range h {
				headers[k] = h.Get(k)
			}

			s, err := a.session(false)
			if err != nil {
				return err
			}
			client, err := a.apiClient(s)
			if err != nil {
				return err
			}

			resp, err := send(cmd, client, method, endpoint, q, body, headers, withToken)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			status := fmt.Sprintf("%d %s", resp.Status, resp.StatusText)
			if resp.OK() {
				printSuccess(out, "%s %s: %s", method, endpoint, status)
			} else {
				printWarning(out, "%s %s: %s", method, endpoint, status)
			}
			if len(resp.Body) > 0 {
				fmt.Fprintln(out, string(resp.Body))
			}
			if !resp.OK() {
				return fmt.Errorf("request failed: %s", status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withToken, "token", "t", false, "Send the bearer token")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter as key=value, repeatable")
	cmd.Flags().StringArrayVarP(&header, "header", "H", nil, "Header as key=value, repeatable")

	return cmd
}

func send(cmd *cobra.Command, c *apiclient.Client, method, endpoint string, q url.Values, body any, headers map[string]string, withToken bool) (*transport.Response, error) {
	ctx := cmd.Context()

	// only GET and POST have query variants
	if len(q) > 0 && method != "GET" && method != "POST" {
		merged, err := mergeQuery(endpoint, q)
		if err != nil {
			return nil, err
		}
		endpoint, q = merged, nil
	}

	switch method {
	case "GET":
		if withToken {
			return c.GetWithTokenAndQuery(ctx, endpoint, q, headers)
		}
		return c.GetWithQuery(ctx, endpoint, q, headers)
	case "POST":
		if withToken {
			return c.PostWithTokenAndQuery(ctx, endpoint, q, body, headers)
		}
		return c.PostWithQuery(ctx, endpoint, q, body, headers)
	case "PUT":
		if withToken {
			return c.PutWithToken(ctx, endpoint, body, headers)
		}
		return c.Put(ctx, endpoint, body, headers)
	case "PATCH":
		if withToken {
			return c.PatchWithToken(ctx, endpoint, body, headers)
		}
		return c.Patch(ctx, endpoint, body, headers)
	case "DELETE":
		if withToken {
			return c.DeleteWithToken(ctx, endpoint, headers)
		}
		return c.Delete(ctx, endpoint, headers)
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
}

// mergeQuery adds q to any query already present in endpoint.
func mergeQuery(endpoint string, q url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	existing := u.Query()
	for k, vs := range q {
		for _, v := range vs {
			existing.Add(k, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}

// parsePairs parses key=value flag values.
func parsePairs(pairs []string) (url.Values, error) {
	values := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		values.Add(k, v)
	}
	return values, nil
}
