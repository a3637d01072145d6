package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет мокировать HTTP клиент в тестах.
// Стандартный *http.Client реализует этот интерфейс.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxBodySize ограничивает размер ответа провайдера.
const maxBodySize = 4 << 20

// httpClient: общий HTTP слой провайдеров: throttling, retry и разбор JSON.
type httpClient struct {
	http           HTTPClient
	waiter         Waiter
	retryAttempts  int
	userAgent      string
	attemptTimeout time.Duration
}

func newHTTPClient(httpc HTTPClient, waiter Waiter, retryAttempts int, userAgent string) *httpClient {
	if httpc == nil {
		httpc = &http.Client{}
	}
	if waiter == nil {
		waiter = NewThrottle(0)
	}
	if retryAttempts <= 0 {
		retryAttempts = 1
	}
	return &httpClient{
		http:          httpc,
		waiter:        waiter,
		retryAttempts: retryAttempts,
		userAgent:     userAgent,
	}
}

// setAttemptTimeout задаёт таймаут одной HTTP попытки (<= 0 означает без таймаута).
//
// Отсчёт идёт с момента, когда Throttle выдал окно: ожидание в очереди
// не расходует бюджет попытки.
func (c *httpClient) setAttemptTimeout(d time.Duration) {
	c.attemptTimeout = d
}

// attemptResult: ответ одной HTTP попытки, тело уже прочитано.
type attemptResult struct {
	status int
	header http.Header
	body   []byte
}

// do выполняет одну попытку со своим таймаутом.
func (c *httpClient) do(ctx context.Context, rawURL string) (*attemptResult, error) {
	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return &attemptResult{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// getJSON выполняет GET запрос с retry логикой и throttling.
//
// Параметры:
//   - ctx: контекст вызывающего (таймаут попытки добавляется внутри)
//   - endpoint: полный URL без query
//   - params: query параметры (может быть nil)
//   - dest: указатель на структуру для unmarshal результата
//
// Возвращает *ProviderError (без Provider/Op) при любой ошибке.
func (c *httpClient) getJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &ProviderError{Type: ErrUnknown, Err: fmt.Errorf("invalid url: %w", err)}
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var lastErr error
	lastStatus := 0

	// Retry loop
	for i := 0; i < c.retryAttempts; i++ {
		// 1. Ждём своего окна (вызовы сериализуются, а не отбрасываются)
		if err := c.waiter.Wait(ctx); err != nil {
			return &ProviderError{Type: ClassifyError(err), Err: err}
		}

		// 2. Выполняем запрос
		res, err := c.do(ctx, u.String())
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break // Вызывающий отменил запрос, повторять бессмысленно
			}
			continue // Сетевая ошибка или таймаут попытки, пробуем еще
		}
		body := res.body

		// 3. Обработка 429 (Too Many Requests)
		if res.status == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("status %d, body: %s", res.status, truncate(body))
			lastStatus = res.status

			retryAfter := 1 * time.Second
			if s := res.header.Get("Retry-After"); s != "" {
				if sec, err := strconv.Atoi(s); err == nil && sec >= 0 {
					retryAfter = time.Duration(sec) * time.Second
				}
			}

			select {
			case <-ctx.Done():
				return &ProviderError{Type: ErrRateLimit, StatusCode: lastStatus, Err: lastErr}
			case <-time.After(retryAfter):
				continue
			}
		}

		// 4. 5xx повторяем, остальные ошибки возвращаем сразу
		if res.status >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("status %d, body: %s", res.status, truncate(body))
			lastStatus = res.status
			continue
		}
		if res.status == http.StatusUnauthorized || res.status == http.StatusForbidden {
			return &ProviderError{Type: ErrAuthFailed, StatusCode: res.status,
				Err: fmt.Errorf("status %d, body: %s", res.status, truncate(body))}
		}
		if res.status != http.StatusOK {
			return &ProviderError{Type: ErrBadStatus, StatusCode: res.status,
				Err: fmt.Errorf("status %d, body: %s", res.status, truncate(body))}
		}

		// 5. Разбираем JSON
		if err := json.Unmarshal(body, dest); err != nil {
			return &ProviderError{Type: ErrMalformed, StatusCode: res.status, Err: fmt.Errorf("unmarshal error: %w", err)}
		}

		return nil // Успех
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no attempts made")
	}

	errType := ClassifyError(lastErr)
	switch {
	case lastStatus == http.StatusTooManyRequests:
		errType = ErrRateLimit
	case lastStatus >= http.StatusInternalServerError:
		errType = ErrBadStatus
	}
	return &ProviderError{
		Type:       errType,
		StatusCode: lastStatus,
		Err:        fmt.Errorf("max retries exceeded, last error: %w", lastErr),
	}
}

// truncate укорачивает тело ответа для сообщений об ошибках.
func truncate(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
