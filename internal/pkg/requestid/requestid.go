// requestid хранит идентификатор запроса (X-Request-Id) в context.Context,
// чтобы его видели исходящие вызовы и обработчики ошибок.
package requestid

import "context"

// Header - имя заголовка с идентификатором запроса.
const Header = "X-Request-Id"

type ctxKey struct{}

// Into кладёт id в контекст.
func Into(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// From достаёт id из контекста; пустая строка, если его нет.
func From(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
