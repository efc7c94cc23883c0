// Package dyndb fornece uma abstração genérica e fortemente tipada sobre o
// AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote `dyndb` oferece a interface `Store[T]`, que simplifica as operações
// de leitura e escrita, eliminando a necessidade de lidar diretamente com os
// tipos de baixo nível do SDK do DynamoDB (AttributeValue, etc.).
//
// Funcionalidades Principais:
//   - CRUD Tipado: `Get`, `Put`, `Update` e `Delete` usando tipos Go nativos.
//   - Escritas Condicionais: `WithCondition` transforma qualquer escrita em
//     condicional; a falha da condição vira `ErrConditionFailed`.
//   - Builder Fluente: `Query().KeyEqual(...).ScanForward(false).All(ctx)`.
//   - Paginação: `LastEvaluatedKey` convertido em tokens Base64 opacos.
//   - Mock Integrado: `MockDynamoClient` para testes unitários.
//
// Exemplo de escrita condicional:
//
//	type Todo struct {
//		UserID string `dynamodbav:"userId"`
//		TodoID string `dynamodbav:"todoId"`
//		Name   string `dynamodbav:"name"`
//	}
//
//	store := dyndb.New(client, dyndb.TableConfig[Todo]{
//		TableName: "Todos", HashKey: "userId", SortKey: "todoId",
//	})
//
//	update := expression.Set(expression.Name("name"), expression.Value("novo nome"))
//	exists := expression.Name("todoId").Equal(expression.Value("t-1"))
//
//	item, err := store.Update(ctx, "u-1", "t-1", update, dyndb.WithCondition(exists))
//	if errors.Is(err, dyndb.ErrConditionFailed) { /* item não existe */ }
//
// Exemplo de Query:
//
//	todos, err := store.Query().
//		KeyEqual("userId", "u-1").
//		ScanForward(false).
//		All(ctx)
package dyndb
